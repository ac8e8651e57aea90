// SPDX-License-Identifier: MIT
package analysis

// Defines the standard interface for components that process audio buffers.
type AudioProcessor interface {
	// Process analyzes the given audio input buffer. Implementations should be efficient as
	// this is called from the audio goroutine between blocking reads.
	Process(inputBuffer []int32)
}

// FeatureSource is an AudioProcessor whose results can be read back as a Snapshot.
type FeatureSource interface {
	AudioProcessor
	Snapshot() Snapshot
}

// ClosableProcessor combines AudioProcessor with a Close method for resource cleanup.
type ClosableProcessor interface {
	AudioProcessor
	Close() error // Close releases any resources held by the processor.
}
