// Package utils holds the low-level helpers shared by the fireai providers:
// the JSON POST helper and body handling used by the HTTP pipeline
// ([PostJSON], [CloseWithLog]), the server-sent event [FrameScanner],
// tolerant decoding of model output ([ParseStringAs]) and small generic
// helpers.
package utils
