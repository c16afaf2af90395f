// Package process cleans up browser processes started for PDF rendering.
package process
