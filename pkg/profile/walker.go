package profile

// FrameReader reads the two consecutive machine words at a frame
// pointer: the caller's frame pointer and the return address.
type FrameReader func(fp uint64) (nextFP, retPC uint64, err error)

// WalkStack unwinds a stopped thread through its frame-pointer chain.
// Each pc is prepended, so the returned sample lists the outermost
// caller first and the executing frame last. The walk ends on
// a faulted read, a non-growing frame pointer, or a frame larger than
// maxFrameSize.
func WalkStack(read FrameReader, pc, fp, maxFrameSize uint64) []uint64 {
	var stack []uint64

	for {
		stack = append([]uint64{pc}, stack...)

		nextFP, retPC, err := read(fp)
		if err != nil || nextFP <= fp || nextFP-fp > maxFrameSize {
			break
		}

		pc, fp = retPC, nextFP
	}

	return stack
}
