package utils

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ParseStringAs converts model output into a T.
//
// Strings, booleans and numbers are converted directly, which covers
// enum-constrained and plain-text outputs. Everything else is decoded as
// JSON; when that fails the text is run through jsonrepair (markdown fences,
// trailing commas, single quotes, truncated objects) and decoded again.
//
//	type Recipe struct {
//	    Name  string   `json:"name"`
//	    Steps []string `json:"steps"`
//	}
//	recipe, err := ParseStringAs[Recipe]("```json\n{\"name\":\"Soup\",\"steps\":[\"boil\"]}\n```")
func ParseStringAs[T any](content string) (T, error) {
	var result T
	target := reflect.ValueOf(&result).Elem()

	switch target.Kind() {
	case reflect.String:
		target.SetString(content)
		return result, nil

	case reflect.Bool:
		value, err := strconv.ParseBool(strings.TrimSpace(content))
		if err != nil {
			return result, fmt.Errorf("failed to parse content as bool: %w", err)
		}
		target.SetBool(value)
		return result, nil

	case reflect.Float32, reflect.Float64:
		value, err := strconv.ParseFloat(strings.TrimSpace(content), 64)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as float: %w", err)
		}
		target.SetFloat(value)
		return result, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		value, err := strconv.ParseInt(strings.TrimSpace(content), 10, 64)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as int: %w", err)
		}
		target.SetInt(value)
		return result, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		value, err := strconv.ParseUint(strings.TrimSpace(content), 10, 64)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as uint: %w", err)
		}
		target.SetUint(value)
		return result, nil
	}

	err := json.Unmarshal([]byte(content), &result)
	if err == nil {
		return result, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(content)
	if repairErr != nil {
		return result, fmt.Errorf("failed to unmarshal content as %T (repair failed: %v): %w", result, repairErr, err)
	}

	var repairedResult T
	if err = json.Unmarshal([]byte(repaired), &repairedResult); err != nil {
		return result, fmt.Errorf("failed to unmarshal repaired JSON as %T: %w (content: %s)", result, err, TruncateString(content, DefaultMaxStringLength))
	}
	return repairedResult, nil
}
