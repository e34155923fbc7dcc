package utils

import "testing"

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		input    uint64
		expected string
	}{
		{0, "0"},
		{123, "123"},
		{1234, "1,234"},
		{1234567, "1,234,567"},
	}

	for _, test := range tests {
		result := FormatNumber(test.input)
		if result != test.expected {
			t.Errorf("FormatNumber(%d) = %s; expected %s", test.input, result, test.expected)
		}
	}
}

func TestGetClassName(t *testing.T) {
	tests := []struct {
		input    int
		expected string
	}{
		{0, "Person"},
		{2, "Car"},
		{999, "Class 999"},
	}

	for _, test := range tests {
		result := GetClassName(test.input)
		if result != test.expected {
			t.Errorf("GetClassName(%d) = %s; expected %s", test.input, result, test.expected)
		}
	}
}

func TestSortClassesByCount(t *testing.T) {
	input := map[int]uint64{
		0: 100,
		7: 50,
		2: 200,
		3: 50,
	}

	result := SortClassesByCount(input)

	// Should be sorted by count descending: 2(200), 0(100), 3(50), 7(50)
	// For same count, sorted by class id ascending: 3 before 7
	expected := []ClassCount{
		{ClassID: 2, Count: 200},
		{ClassID: 0, Count: 100},
		{ClassID: 3, Count: 50},
		{ClassID: 7, Count: 50},
	}

	if len(result) != len(expected) {
		t.Fatalf("Expected %d items, got %d", len(expected), len(result))
	}

	for i, exp := range expected {
		if result[i].ClassID != exp.ClassID || result[i].Count != exp.Count {
			t.Errorf("At index %d: expected %+v, got %+v", i, exp, result[i])
		}
	}
}
