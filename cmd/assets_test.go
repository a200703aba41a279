package cmd

import "testing"

func TestAssetsExitError(t *testing.T) {
	tests := []struct {
		name    string
		strict  bool
		failed  int
		total   int
		wantErr bool
	}{
		{"all succeeded", false, 0, 4, false},
		{"partial failure is reported but exits zero", false, 1, 4, false},
		{"all failed exits non-zero", false, 4, 4, true},
		{"strict fails on a single failure", true, 1, 4, true},
		{"strict with no failures exits zero", true, 0, 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assetsExitError(tt.strict, tt.failed, tt.total)
			if (err != nil) != tt.wantErr {
				t.Errorf("assetsExitError(%v, %d, %d) = %v, wantErr %v", tt.strict, tt.failed, tt.total, err, tt.wantErr)
			}
		})
	}
}
