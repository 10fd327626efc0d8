// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package prompt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/utils"
)

var (
	ErrInputEmpty      = errors.New("input is empty")
	ErrInputTooLarge   = errors.New("input is too large")
	ErrInvalidChoice   = errors.New("invalid choice")
	ErrIndexOutOfRange = errors.New("index out-of-range")
	ErrTooManyItems    = errors.New("too many items")
)

func Address(label string) (codec.Address, error) {
	promptText := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			_, err := codec.ParseAddress(strings.TrimSpace(input))
			return err
		},
	}
	recipient, err := promptText.Run()
	if err != nil {
		return codec.EmptyAddress, err
	}
	return codec.ParseAddress(strings.TrimSpace(recipient))
}

func String(label string, minLen int, maxLen int) (string, error) {
	promptText := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			return checkLength(input, minLen, maxLen)
		},
	}
	text, err := promptText.Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), err
}

func checkLength(input string, minLen int, maxLen int) error {
	if len(input) < minLen {
		return ErrInputEmpty
	}
	if len(input) > maxLen {
		return ErrInputTooLarge
	}
	return nil
}

// Uint64 reads a base-10 integer. [f] may reject values that parse.
func Uint64(label string, f func(uint64) error) (uint64, error) {
	promptText := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			v, err := ParseUint64(input)
			if err != nil {
				return err
			}
			if f != nil {
				return f(v)
			}
			return nil
		},
	}
	raw, err := promptText.Run()
	if err != nil {
		return 0, err
	}
	return ParseUint64(raw)
}

func ParseUint64(input string) (uint64, error) {
	input = strings.TrimSpace(input)
	if len(input) == 0 {
		return 0, ErrInputEmpty
	}
	return strconv.ParseUint(input, 10, 64)
}

// Uint64s reads a comma separated list of at most [maxItems] integers.
func Uint64s(label string, maxItems int) ([]uint64, error) {
	promptText := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			_, err := ParseUint64s(input, maxItems)
			return err
		},
	}
	raw, err := promptText.Run()
	if err != nil {
		return nil, err
	}
	return ParseUint64s(raw, maxItems)
}

func ParseUint64s(input string, maxItems int) ([]uint64, error) {
	input = strings.TrimSpace(input)
	if len(input) == 0 {
		return nil, ErrInputEmpty
	}
	parts := strings.Split(input, ",")
	if len(parts) > maxItems {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyItems, len(parts), maxItems)
	}
	vs := make([]uint64, 0, len(parts))
	for _, part := range parts {
		v, err := ParseUint64(part)
		if err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	return vs, nil
}

func Choice(label string, maxChoice int) (int, error) {
	if maxChoice == 1 {
		utils.Outf("{{yellow}}%s:{{/}} 0 (only option)\n", label)
		return 0, nil
	}
	promptText := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			_, err := ParseChoice(input, maxChoice)
			return err
		},
	}
	rawIndex, err := promptText.Run()
	if err != nil {
		return -1, err
	}
	return ParseChoice(rawIndex, maxChoice)
}

func ParseChoice(input string, maxChoice int) (int, error) {
	input = strings.TrimSpace(input)
	if len(input) == 0 {
		return -1, ErrInputEmpty
	}
	index, err := strconv.Atoi(input)
	if err != nil {
		return -1, err
	}
	if index >= maxChoice || index < 0 {
		return -1, ErrIndexOutOfRange
	}
	return index, nil
}

func Continue() (bool, error) {
	cont, err := Bool("continue")
	if err != nil {
		return false, err
	}
	if !cont {
		utils.Outf("{{red}}exiting...{{/}}\n")
	}
	return cont, nil
}

func Bool(label string) (bool, error) {
	promptText := promptui.Prompt{
		Label: fmt.Sprintf("%s (y/n)", label),
		Validate: func(input string) error {
			_, err := ParseBool(input)
			return err
		},
	}
	raw, err := promptText.Run()
	if err != nil {
		return false, err
	}
	return ParseBool(raw)
}

func ParseBool(input string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "":
		return false, ErrInputEmpty
	case "y":
		return true, nil
	case "n":
		return false, nil
	default:
		return false, ErrInvalidChoice
	}
}
