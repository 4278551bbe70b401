package grid

import "testing"

func TestGetGridCoords(t *testing.T) {
	tests := []struct {
		index int
		cols  int
		wantX int
		wantY int
	}{
		// 64x32 display
		{0, 64, 0, 0},
		{63, 64, 63, 0},
		{64, 64, 0, 1},
		{130, 64, 2, 2},
		{2047, 64, 63, 31},

		// 8 pixels per packed byte
		{0, 8, 0, 0},
		{9, 8, 1, 1},
		{255, 8, 7, 31},
	}

	for _, tc := range tests {
		gotX, gotY := GetGridCoords(tc.index, tc.cols)
		if gotX != tc.wantX || gotY != tc.wantY {
			t.Errorf("GetGridCoords(%d, %d) = (%d, %d); want (%d, %d)", tc.index, tc.cols, gotX, gotY, tc.wantX, tc.wantY)
		}
	}
}

func TestIndexRoundTrip(t *testing.T) {
	for _, cols := range []int{8, 64} {
		for i := 0; i < cols*32; i++ {
			x, y := GetGridCoords(i, cols)
			if got := Index(x, y, cols); got != i {
				t.Errorf("Index(GetGridCoords(%d, %d)) = %d; want %d", i, cols, got, i)
			}
		}
	}
}
