package visual

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		prompt  string
		min     int
		wantErr bool
	}{
		{"empty", "", 40, true},
		{"whitespace only", "    \n\t  ", 40, true},
		{"too short", "blue shapes", 40, true},
		{"long enough", "Soft blue gradients with floating geometric shapes drifting upward slowly.", 40, false},
		{"exactly at minimum", "0123456789", 10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.prompt, tt.min)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q, %d) err = %v, wantErr %v", tt.prompt, tt.min, err, tt.wantErr)
			}
		})
	}
}
