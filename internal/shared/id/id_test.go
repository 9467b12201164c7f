package id

import (
	"strings"
	"testing"
)

// FuzzGenerate tests the Generate function
func FuzzGenerate(f *testing.F) {
	// Seed with various lengths
	lengths := []int{0, 1, 2, 5, 10, 12, 20, 32, 50, 100}
	for _, l := range lengths {
		f.Add(l)
	}

	f.Fuzz(func(t *testing.T, length int) {
		// Generate should handle any length
		result, err := Generate(length)

		// Should not return error
		if err != nil {
			t.Errorf("Generate(%d) returned error: %v", length, err)
			return
		}

		// If length <= 0, should use default length
		expectedLen := length
		if expectedLen <= 0 {
			expectedLen = DefaultLength
		}

		if len(result) != expectedLen {
			t.Errorf("Generate(%d) returned string of length %d, expected %d", length, len(result), expectedLen)
		}

		// All characters should be from the alphabet
		for _, c := range result {
			if !strings.ContainsRune(alphabet, c) {
				t.Errorf("Generate(%d) returned invalid character %q", length, c)
			}
		}
	})
}

// TestGenerateUniqueness tests that generated IDs are unique
func TestGenerateUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	iterations := 10000

	for i := 0; i < iterations; i++ {
		id, err := Generate(DefaultLength)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}

		if seen[id] {
			t.Errorf("Generate produced duplicate ID: %s", id)
		}
		seen[id] = true
	}
}

func TestGenerateWithPrefix(t *testing.T) {
	id, err := GenerateWithPrefix("ta", 4)
	if err != nil {
		t.Fatalf("GenerateWithPrefix failed: %v", err)
	}

	if !strings.HasPrefix(id, "ta_") {
		t.Errorf("generated ID %q doesn't have expected prefix ta_", id)
	}
	if len(id) != len("ta_")+4 {
		t.Errorf("generated ID %q has length %d, expected %d", id, len(id), len("ta_")+4)
	}
}

func TestNewDeviceToken(t *testing.T) {
	token := NewDeviceToken()

	if len(token) != DeviceTokenLength {
		t.Errorf("device token length %d doesn't match expected %d", len(token), DeviceTokenLength)
	}
	for _, c := range token {
		if !strings.ContainsRune(alphabet, c) {
			t.Errorf("device token contains invalid character %q", c)
		}
	}
	if token == NewDeviceToken() {
		t.Error("two device tokens should not collide")
	}
}
