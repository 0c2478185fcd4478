package model

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReplayRunner plays back recorded raw output vectors, one per line of a text
// file, cycling when it reaches the end. It ignores its input.
type ReplayRunner struct {
	inputLen int
	output   []float32
	vectors  [][]float32
	next     int
}

func NewReplayRunner(opts Options, output []float32) (*ReplayRunner, error) {
	f, err := os.Open(opts.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open replay file: %w", err)
	}
	defer f.Close()

	var vectors [][]float32
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if len(fields) != len(output) {
			return nil, fmt.Errorf("replay line %d: %d values, model outputs %d", line, len(fields), len(output))
		}
		vec := make([]float32, len(fields))
		for i, s := range fields {
			v, err := strconv.ParseFloat(s, 32)
			if err != nil {
				return nil, fmt.Errorf("replay line %d: %w", line, err)
			}
			vec[i] = float32(v)
		}
		vectors = append(vectors, vec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read replay file: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("replay file %s holds no vectors", opts.ModelPath)
	}

	return &ReplayRunner{inputLen: opts.InputLen, output: output, vectors: vectors}, nil
}

func (r *ReplayRunner) AddInput(input []float32) error {
	if len(input) != r.inputLen {
		return fmt.Errorf("%w: got %d, model takes %d", ErrInputSize, len(input), r.inputLen)
	}
	return nil
}

func (r *ReplayRunner) Execute() error {
	copy(r.output, r.vectors[r.next])
	r.next = (r.next + 1) % len(r.vectors)
	return nil
}

func (r *ReplayRunner) Close() error {
	return nil
}
