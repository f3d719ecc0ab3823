// Package symbolize maps runtime instruction addresses of a live
// process to human-readable "symbol + offset (in image)" locations.
package symbolize

import (
	"sort"

	log "github.com/rs/zerolog"

	"github.com/mjacobson/drspin/pkg/dynlink"
	"github.com/mjacobson/drspin/pkg/remote"
)

// Symbolicator resolves one runtime address to a printable location.
type Symbolicator interface {
	Symbolicate(address uint64) string
}

// LibrarySymbolicator resolves addresses against the symbol tables of
// the target's loaded objects, parsed from their on-disk ELF images.
type LibrarySymbolicator struct {
	libraries []*Library
}

// NewLibrarySymbolicator builds a symbolicator over the given
// libraries, kept sorted by ascending load address.
func NewLibrarySymbolicator(libraries ...*Library) *LibrarySymbolicator {
	sorted := make([]*Library, len(libraries))
	copy(sorted, libraries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].LoadAddress < sorted[j].LoadAddress
	})

	return &LibrarySymbolicator{libraries: sorted}
}

// LoadProcessLibraries enumerates the target's loaded objects through
// its dynamic linker state and indexes the symbols of each. The
// target must be stopped.
func LoadProcessLibraries(pid int, logger log.Logger) ([]*Library, error) {
	mappings, err := dynlink.Libraries(pid, remote.NewReader(pid), logger)
	if err != nil {
		return nil, err
	}

	libraries := make([]*Library, 0, len(mappings))
	for _, mapping := range mappings {
		library, err := NewLibrary(mapping.Path, mapping.LoadAddr)
		if err != nil {
			return nil, err
		}
		logger.Debug().Str("path", library.Path).Int("symbols", len(library.Symbols)).Msg("indexed library")
		libraries = append(libraries, library)
	}

	return libraries, nil
}

func (s *LibrarySymbolicator) Symbolicate(address uint64) string {
	if address == 0 {
		return "..."
	}

	// The first library strictly above the address; the candidate is
	// the one before it.
	i := sort.Search(len(s.libraries), func(i int) bool {
		return s.libraries[i].LoadAddress > address
	})
	if i == 0 {
		return "???"
	}

	library := s.libraries[i-1]

	return library.Symbolicate(library.BaseAddress + address - library.LoadAddress)
}
