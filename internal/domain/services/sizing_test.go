package services

import (
	"testing"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
)

func TestComputeOutputSize(t *testing.T) {
	tests := []struct {
		name       string
		cmd        entities.SizeCommand
		inW, inH   uint32
		want       entities.OutputSize
		wantOutput bool
	}{
		{
			name:       "both negative produces nothing",
			cmd:        entities.SizeCommand{Width: -1, Height: -1},
			inW:        100,
			inH:        200,
			wantOutput: false,
		},
		{
			name:       "zero keeps original size",
			cmd:        entities.SizeCommand{Width: 0, Height: 0},
			inW:        100,
			inH:        200,
			want:       entities.OutputSize{Width: 100, Height: 200},
			wantOutput: true,
		},
		{
			name:       "negative width keeps aspect ratio",
			cmd:        entities.SizeCommand{Width: -1, Height: 100},
			inW:        100,
			inH:        200,
			want:       entities.OutputSize{Width: 50, Height: 100},
			wantOutput: true,
		},
		{
			name:       "negative height keeps aspect ratio",
			cmd:        entities.SizeCommand{Width: 50, Height: -1},
			inW:        100,
			inH:        200,
			want:       entities.OutputSize{Width: 50, Height: 100},
			wantOutput: true,
		},
		{
			name:       "explicit values are used as-is",
			cmd:        entities.SizeCommand{Width: 200, Height: 300},
			inW:        100,
			inH:        200,
			want:       entities.OutputSize{Width: 200, Height: 300},
			wantOutput: true,
		},
		{
			name:       "zero width with negative height follows original width",
			cmd:        entities.SizeCommand{Width: 0, Height: -5},
			inW:        100,
			inH:        200,
			want:       entities.OutputSize{Width: 100, Height: 200},
			wantOutput: true,
		},
		{
			name:       "ratio truncates toward zero",
			cmd:        entities.SizeCommand{Width: -1, Height: 10},
			inW:        33,
			inH:        20,
			want:       entities.OutputSize{Width: 16, Height: 10},
			wantOutput: true,
		},
		{
			name:       "tiny ratio falls back to one pixel",
			cmd:        entities.SizeCommand{Width: -1, Height: 1},
			inW:        1,
			inH:        1000,
			want:       entities.OutputSize{Width: 1, Height: 1},
			wantOutput: true,
		},
		{
			name:       "width past 32 bits wraps",
			cmd:        entities.SizeCommand{Width: 1 << 32, Height: 0},
			inW:        10,
			inH:        20,
			want:       entities.OutputSize{Width: 1, Height: 20},
			wantOutput: true,
		},
		{
			name:       "height past 32 bits keeps the low bits",
			cmd:        entities.SizeCommand{Width: 0, Height: 1<<32 + 7},
			inW:        10,
			inH:        20,
			want:       entities.OutputSize{Width: 10, Height: 7},
			wantOutput: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ComputeOutputSize(tt.cmd, tt.inW, tt.inH)
			if ok != tt.wantOutput {
				t.Fatalf("ComputeOutputSize() ok = %v, want %v", ok, tt.wantOutput)
			}
			if got != tt.want {
				t.Errorf("ComputeOutputSize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
