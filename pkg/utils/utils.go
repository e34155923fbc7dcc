package utils

import (
	"fmt"
	"sort"
	"strconv"
)

type ClassCount struct {
	ClassID int
	Count   uint64
}

// SortClassesByCount sorts detection classes by count (descending), then by class id (ascending)
func SortClassesByCount(countedByClass map[int]uint64) []ClassCount {
	var classCounts []ClassCount
	for classID, count := range countedByClass {
		classCounts = append(classCounts, ClassCount{ClassID: classID, Count: count})
	}

	// Sort by count descending, then by class id ascending
	sort.Slice(classCounts, func(i, j int) bool {
		if classCounts[i].Count == classCounts[j].Count {
			return classCounts[i].ClassID < classCounts[j].ClassID
		}
		return classCounts[i].Count > classCounts[j].Count
	})

	return classCounts
}

// FormatNumber formats a number with comma separators for readability
func FormatNumber(n uint64) string {
	str := strconv.FormatUint(n, 10)
	if len(str) <= 3 {
		return str
	}

	result := ""
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return result
}

// GetClassName returns a human-readable name for a detector class id
func GetClassName(classID int) string {
	switch classID {
	case 0:
		return "Person"
	case 1:
		return "Bicycle"
	case 2:
		return "Car"
	case 3:
		return "Motorbike"
	case 5:
		return "Bus"
	case 7:
		return "Truck"
	case 9:
		return "Boat"
	case 16:
		return "Bird"
	case 17:
		return "Cat"
	case 18:
		return "Dog"
	default:
		return fmt.Sprintf("Class %d", classID)
	}
}
