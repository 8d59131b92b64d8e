package content

import (
	"encoding/json"
	"fmt"

	"github.com/emrgen/ingest/internal/model"
)

var samples = map[model.Kind]any{
	model.KindItemList: map[string]any{
		"type":        "itemList",
		"title":       "JavaScript Fundamentals Quiz",
		"description": "A collection of basic JavaScript questions",
		"items": []map[string]string{
			{
				"question": "What is the correct way to declare a variable in JavaScript?",
				"answer":   "Using let, const, or var keywords",
			},
			{
				"question": "What does the typeof operator return?",
				"answer":   "A string indicating the type of the operand",
			},
			{
				"question": "How do you create a function in JavaScript?",
				"answer":   "Using the function keyword or arrow function syntax",
			},
		},
	},
	model.KindActivity: map[string]any{
		"type":    "activity",
		"title":   "JavaScript Variables Practice",
		"content": "Practice declaring and using variables in JavaScript. Create variables for different data types and experiment with their values.",
		"learningObjectives": []string{
			"Understand variable declaration syntax",
			"Learn about different data types",
			"Practice variable assignment and manipulation",
		},
	},
	model.KindLesson: map[string]any{
		"type":    "lesson",
		"title":   "Introduction to JavaScript",
		"content": "JavaScript is a programming language that enables interactive web pages. This lesson covers the fundamentals of JavaScript programming.",
		"learningObjectives": []string{
			"Understand basic JavaScript syntax",
			"Learn about variables and data types",
			"Practice writing simple functions",
			"Explore basic control structures",
		},
	},
}

// Sample returns the pretty-printed sample document of kind.
func Sample(kind model.Kind) (string, error) {
	sample, ok := samples[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", model.ErrUnknownKind, kind)
	}

	data, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		return "", err
	}

	return string(data), nil
}
