// Package ws provides a gorilla/websocket implementation of live.Transport.
package ws
