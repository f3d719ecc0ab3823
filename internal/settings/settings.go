package settings

import "time"

const CmdName = "drspin"

const (
	// DefaultSampleInterval is the run time granted to the target between
	// two consecutive samples.
	DefaultSampleInterval = time.Millisecond

	// DefaultMaxFrameSize bounds the distance between two consecutive
	// frame pointers during a stack walk. A larger jump ends the walk.
	DefaultMaxFrameSize = 1 << 20

	// ThreadListMax bounds the number of threads sampled per tick.
	ThreadListMax = 64
)
