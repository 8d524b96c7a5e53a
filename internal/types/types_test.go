package types

import "testing"

func TestParseDecodingMode(t *testing.T) {
	testCases := []struct {
		input    string
		expected DecodingMode
		valid    bool
	}{
		{input: "", expected: DecodingStrict, valid: true},
		{input: "strict", expected: DecodingStrict, valid: true},
		{input: " Replace ", expected: DecodingReplace, valid: true},
		{input: "latin1", valid: false},
	}
	for _, testCase := range testCases {
		mode, valid := ParseDecodingMode(testCase.input)
		if valid != testCase.valid || mode != testCase.expected {
			t.Fatalf("ParseDecodingMode(%q) = %q, %t; expected %q, %t", testCase.input, mode, valid, testCase.expected, testCase.valid)
		}
	}
}
