// Package dynlink enumerates the shared objects loaded into a live
// process by walking its dynamic linker state: the auxiliary vector
// locates the program headers, PT_DYNAMIC locates the dynamic table,
// and DT_DEBUG points at the r_debug structure whose link map lists
// every loaded object.
package dynlink

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/pkg/errors"
	log "github.com/rs/zerolog"

	"github.com/mjacobson/drspin/pkg/remote"
)

// Mapping is one loaded object: its path and the runtime base address
// at which the loader placed it.
type Mapping struct {
	Path     string
	LoadAddr uint64
}

// rDebug mirrors the dynamic linker debug structure for 64-bit
// targets. Only the link map head is consumed.
type rDebug struct {
	Version int32
	_       [4]byte
	Map     uint64
	Brk     uint64
	State   int32
	_       [4]byte
	Ldbase  uint64
}

// linkMap mirrors one node of the dynamic linker link map.
type linkMap struct {
	Addr uint64
	Name uint64
	Ld   uint64
	Next uint64
	Prev uint64
}

// Libraries returns every object currently loaded into the target,
// in link-map order. The target must be stopped.
func Libraries(pid int, reader *remote.Reader, logger log.Logger) ([]Mapping, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/auxv", pid))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read auxv of pid %d", pid)
	}

	phdrAddr, phdrCount, err := PhdrFromAuxv(data)
	if err != nil {
		return nil, err
	}
	logger.Debug().Uint64("phdr", phdrAddr).Int("phnum", phdrCount).Msg("located program headers")

	debugAddr, err := readDebugPtr(reader, phdrAddr, phdrCount)
	if err != nil {
		return nil, err
	}
	logger.Debug().Uint64("r_debug", debugAddr).Msg("located dynamic linker debug structure")

	var debug rDebug
	if err := reader.ReadInto(debugAddr, &debug); err != nil {
		return nil, errors.Wrap(err, "failed to read r_debug")
	}

	var mappings []Mapping
	for nodeAddr := debug.Map; nodeAddr != 0; {
		var node linkMap
		if err := reader.ReadInto(nodeAddr, &node); err != nil {
			return nil, errors.Wrap(err, "failed to read link map node")
		}

		path, err := reader.CString(node.Name)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read link map path")
		}

		logger.Debug().Str("path", path).Uint64("base", node.Addr).Msg("found loaded object")
		mappings = append(mappings, Mapping{Path: path, LoadAddr: node.Addr})
		nodeAddr = node.Next
	}

	return mappings, nil
}

// PhdrFromAuxv extracts the address and count of the target's program
// headers from its raw auxiliary vector.
func PhdrFromAuxv(data []byte) (uint64, int, error) {
	const (
		atNull  = 0
		atPhdr  = 3
		atPhnum = 5
	)

	var addr, count uint64
	var gotAddr, gotCount bool

scan:
	for off := 0; off+16 <= len(data); off += 16 {
		tag := binary.LittleEndian.Uint64(data[off:])
		val := binary.LittleEndian.Uint64(data[off+8:])

		switch tag {
		case atNull:
			break scan
		case atPhdr:
			addr, gotAddr = val, true
		case atPhnum:
			count, gotCount = val, true
		}
	}

	if !gotAddr {
		return 0, 0, ErrNoPhdrEntry
	}
	if !gotCount {
		return 0, 0, ErrNoPhnumEntry
	}

	return addr, int(count), nil
}

// readDebugPtr walks the target's program headers to PT_DYNAMIC, then
// the dynamic table to DT_DEBUG, and returns the r_debug address.
func readDebugPtr(reader *remote.Reader, phdrAddr uint64, phdrCount int) (uint64, error) {
	phdrs := remote.NewArray[elf.Prog64](reader, phdrAddr, phdrCount)

	var dynamic elf.Prog64
	var found bool
	for i := 0; i < phdrs.Len(); i++ {
		phdr, err := phdrs.Get(i)
		if err != nil {
			return 0, errors.Wrap(err, "failed to read program header")
		}
		if elf.ProgType(phdr.Type) == elf.PT_DYNAMIC {
			dynamic, found = phdr, true
			break
		}
	}
	if !found {
		return 0, ErrNoDynamicSegment
	}

	var dyn elf.Dyn64
	dyns := remote.NewArray[elf.Dyn64](reader, dynamic.Vaddr, int(dynamic.Filesz/uint64(binary.Size(&dyn))))

	for i := 0; i < dyns.Len(); i++ {
		entry, err := dyns.Get(i)
		if err != nil {
			return 0, errors.Wrap(err, "failed to read dynamic entry")
		}
		if elf.DynTag(entry.Tag) == elf.DT_DEBUG {
			return entry.Val, nil
		}
	}

	return 0, ErrNoDebugEntry
}
