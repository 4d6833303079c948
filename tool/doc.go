// Package tool provides the research assistant's data tools: synthetic
// article search, synthetic publication statistics, and citation formatting.
// Each is available as a plain function and as a model-invocable tool
// taking JSON arguments.
package tool
