// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose2(t *testing.T) {
	errStage := errors.New("stage failed")

	tests := []struct {
		// name describes what this test case verifies.
		name string

		// err1 is the error returned by the first stage.
		err1 error

		// err2 is the error returned by the second stage.
		err2 error

		// wantCalls is the number of stages that should run.
		wantCalls int

		// wantErr is the expected error.
		wantErr error
	}{
		{
			name:      "both stages succeed",
			wantCalls: 2,
		},
		{
			name:      "first stage fails",
			err1:      errStage,
			wantCalls: 1,
			wantErr:   errStage,
		},
		{
			name:      "second stage fails",
			err2:      errStage,
			wantCalls: 2,
			wantErr:   errStage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			open := FuncAdapter[Unit, Handle](func(ctx context.Context, _ Unit) (Handle, error) {
				calls++
				return 7, tt.err1
			})
			describe := FuncAdapter[Handle, string](func(ctx context.Context, h Handle) (string, error) {
				calls++
				if tt.err2 != nil {
					return "", tt.err2
				}
				return "handle " + h.String(), nil
			})

			result, err := Compose2(open, describe).Call(context.Background(), Unit{})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, result)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "handle 7", result)
		})
	}
}

func TestCompose3And4(t *testing.T) {
	incr := FuncAdapter[int, int](func(ctx context.Context, n int) (int, error) { return n + 1, nil })
	double := FuncAdapter[int, int](func(ctx context.Context, n int) (int, error) { return n * 2, nil })

	result, err := Compose3[int, int, int, int](incr, double, incr).Call(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 13, result)

	result, err = Compose4[int, int, int, int, int](incr, double, incr, double).Call(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 6, result)
}

func TestApply(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		port := FuncAdapter[IPv4Address, uint16](func(ctx context.Context, a IPv4Address) (uint16, error) {
			return a.Port(), nil
		})

		result, err := Apply(port, MustIPv4Address("127.0.0.1", 8080)).Call(context.Background(), Unit{})

		require.NoError(t, err)
		assert.Equal(t, uint16(8080), result)
	})

	t.Run("error case", func(t *testing.T) {
		wantErr := errors.New("failed")
		fn := FuncAdapter[IPv4Address, uint16](func(ctx context.Context, a IPv4Address) (uint16, error) {
			return 0, wantErr
		})

		_, err := Apply(fn, IPv4Address{}).Call(context.Background(), Unit{})

		require.ErrorIs(t, err, wantErr)
	})
}

func TestConstFunc(t *testing.T) {
	result, err := ConstFunc(KindDatagram).Call(context.Background(), Unit{})

	require.NoError(t, err)
	assert.Equal(t, KindDatagram, result)
}

func TestNewEndpointFunc(t *testing.T) {
	endpoint := MustIPv4Address("93.184.216.34", 443)

	result, err := NewEndpointFunc(endpoint).Call(context.Background(), Unit{})

	require.NoError(t, err)
	assert.Equal(t, endpoint, result)
}
