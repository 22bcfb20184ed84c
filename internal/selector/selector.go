// Package selector picks one variant out of a master playlist.
package selector

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/agleyzer/qpdown/internal/variant"
	"github.com/hashicorp/go-hclog"
)

// ErrNoSelection is returned when the input ends before a valid choice was made.
var ErrNoSelection = errors.New("no variant selected")

// Selector chooses a variant and returns its index in variants.
type Selector interface {
	Select(ctx context.Context, variants []variant.Variant) (int, error)
}

// Prompt asks the user on a terminal, re-prompting until a valid index is entered.
type Prompt struct {
	in     *bufio.Reader
	out    io.Writer
	logger hclog.Logger
}

// NewPrompt creates an interactive selector reading from in and writing the menu to out.
func NewPrompt(in io.Reader, out io.Writer, logger hclog.Logger) *Prompt {
	return &Prompt{
		in:     bufio.NewReader(in),
		out:    out,
		logger: logger.Named("select"),
	}
}

// Select prints the ordered variant list and reads an index.
func (p *Prompt) Select(ctx context.Context, variants []variant.Variant) (int, error) {
	for {
		if err := ctx.Err(); err != nil {
			return -1, err
		}

		fmt.Fprintln(p.out, "select your preferred resolution:")
		for i, v := range variants {
			fmt.Fprintf(p.out, "%d : %s\n", i, v.Label())
		}
		fmt.Fprint(p.out, "[?]: ")

		line, err := p.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return -1, fmt.Errorf("read selection: %w", err)
		}

		input := strings.TrimSpace(line)
		if idx, convErr := strconv.Atoi(input); convErr == nil && idx >= 0 && idx < len(variants) {
			return idx, nil
		}
		if err != nil {
			return -1, ErrNoSelection
		}

		p.logger.Error("invalid resolution", "input", input)
	}
}

// Fixed always selects the same index.
type Fixed int

// Select returns the fixed index, or an error if the playlist has fewer variants.
func (f Fixed) Select(_ context.Context, variants []variant.Variant) (int, error) {
	if int(f) < 0 || int(f) >= len(variants) {
		return -1, fmt.Errorf("variant index %d out of range (0-%d)", int(f), len(variants)-1)
	}
	return int(f), nil
}

// Highest selects the variant with the largest BANDWIDTH; the first one wins ties.
type Highest struct{}

func (Highest) Select(_ context.Context, variants []variant.Variant) (int, error) {
	return pickBandwidth(variants, func(a, b int) bool { return a > b })
}

// Lowest selects the variant with the smallest BANDWIDTH; the first one wins ties.
type Lowest struct{}

func (Lowest) Select(_ context.Context, variants []variant.Variant) (int, error) {
	return pickBandwidth(variants, func(a, b int) bool { return a < b })
}

func pickBandwidth(variants []variant.Variant, better func(a, b int) bool) (int, error) {
	if len(variants) == 0 {
		return -1, ErrNoSelection
	}

	best := 0
	for i := 1; i < len(variants); i++ {
		if better(variants[i].Bandwidth(), variants[best].Bandwidth()) {
			best = i
		}
	}
	return best, nil
}

// FromFlag maps a --variant value to a selector: "" prompts on in/out,
// "best" and "worst" pick by bandwidth, and a number is a fixed index.
func FromFlag(value string, in io.Reader, out io.Writer, logger hclog.Logger) (Selector, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return NewPrompt(in, out, logger), nil
	case "best", "highest":
		return Highest{}, nil
	case "worst", "lowest":
		return Lowest{}, nil
	}

	idx, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("invalid variant %q: want an index, \"best\" or \"worst\"", value)
	}
	return Fixed(idx), nil
}
