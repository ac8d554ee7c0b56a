package utils

import "testing"

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain tarball name",
			input:    "lodash-4.17.21.tgz",
			expected: "lodash-4.17.21.tgz",
		},
		{
			name:     "scope marker",
			input:    "@babel",
			expected: "at_babel",
		},
		{
			name:     "unsafe characters",
			input:    `a:b<c>d"e|f?g*h`,
			expected: "a_b_c_d_e_f_g_h",
		},
		{
			name:     "underscore runs collapse",
			input:    "a___b",
			expected: "a_b",
		},
		{
			name:     "leading and trailing separators trimmed",
			input:    "__.name-.",
			expected: "name",
		},
		{
			name:     "tarball marker collapses to empty",
			input:    "-",
			expected: "",
		},
		{
			name:     "hidden file loses leading dot",
			input:    ".npmrc",
			expected: "npmrc",
		},
		{
			name:     "spaces become underscores",
			input:    "my package.tgz",
			expected: "my_package.tgz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeFileName(tt.input)
			if result != tt.expected {
				t.Errorf("SanitizeFileName(%q) = %q; want %q", tt.input, result, tt.expected)
			}
		})
	}
}
