// Package log provides the logging interface used by the research assistant,
// with a stdlib-backed default and a kataras/golog adapter for structured,
// leveled output in the server binary.
package log
