package symbolize

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/mjacobson/drspin/pkg/image"
)

// VdsoPath is the link-map spelling of the kernel-provided virtual
// DSO, which has no backing file.
const VdsoPath = "[vdso]"

// Symbol is one named range of a library, at its unslid address.
type Symbol struct {
	Name    string
	Address uint64
	Size    uint64
}

// Library is one loaded object with its merged, address-sorted symbol
// table. LoadAddress is the runtime base the loader chose;
// BaseAddress is the virtual address of the first loadable segment as
// declared in the file, so LoadAddress-BaseAddress is the slide.
type Library struct {
	Path        string
	LoadAddress uint64
	BaseAddress uint64
	Symbols     []Symbol
}

// NewLibrary parses the on-disk ELF image backing a loaded object and
// indexes its symbols. The vDSO and anonymous link-map entries are
// kept for address attribution but have no file to parse.
func NewLibrary(path string, loadAddr uint64) (*Library, error) {
	lib := &Library{Path: path, LoadAddress: loadAddr}

	if path == "" || path == VdsoPath || filepath.Base(path) == "linux-vdso.so.1" {
		return lib, nil
	}

	file, err := image.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if err := lib.parse(file); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}

	return lib, nil
}

func (l *Library) parse(file *image.MappedFile) error {
	var header elf.Header64
	if err := file.ReadInto(0, &header); err != nil {
		return err
	}

	// The unslid base address is the p_vaddr of the first loadable
	// segment.
	gotBase := false
	for i := 0; i < int(header.Phnum); i++ {
		var phdr elf.Prog64
		if err := file.ReadInto(header.Phoff+uint64(i)*uint64(header.Phentsize), &phdr); err != nil {
			return err
		}
		if elf.ProgType(phdr.Type) == elf.PT_LOAD {
			l.BaseAddress = phdr.Vaddr
			gotBase = true
			break
		}
	}
	if !gotBase {
		return ErrNoLoadSegment
	}

	sectionAt := func(i int) (elf.Section64, error) {
		var section elf.Section64
		err := file.ReadInto(header.Shoff+uint64(i)*uint64(header.Shentsize), &section)

		return section, err
	}

	shstrtab, err := sectionAt(int(header.Shstrndx))
	if err != nil {
		return err
	}

	// Find the symbol tables and their associated string tables. The
	// section-name string table disambiguates .strtab from .dynstr.
	var symtab, dynsym *elf.Section64
	var strtabOff, dynstrOff uint64

	for i := 0; i < int(header.Shnum); i++ {
		section, err := sectionAt(i)
		if err != nil {
			return err
		}

		switch elf.SectionType(section.Type) {
		case elf.SHT_SYMTAB:
			s := section
			symtab = &s
		case elf.SHT_DYNSYM:
			s := section
			dynsym = &s
		case elf.SHT_STRTAB:
			name, err := file.CString(shstrtab.Off + uint64(section.Name))
			if err != nil {
				return err
			}
			switch name {
			case ".strtab":
				strtabOff = section.Off
			case ".dynstr":
				dynstrOff = section.Off
			}
		}
	}

	if err := l.addSymbols(file, symtab, strtabOff); err != nil {
		return err
	}
	if err := l.addSymbols(file, dynsym, dynstrOff); err != nil {
		return err
	}

	sort.Slice(l.Symbols, func(i, j int) bool {
		return l.Symbols[i].Address < l.Symbols[j].Address
	})

	return nil
}

func (l *Library) addSymbols(file *image.MappedFile, table *elf.Section64, strtabOff uint64) error {
	if table == nil {
		return nil
	}

	var sym elf.Sym64
	count := int(table.Size / uint64(binary.Size(&sym)))

	for i := 0; i < count; i++ {
		if err := file.ReadInto(table.Off+uint64(i)*uint64(binary.Size(&sym)), &sym); err != nil {
			return err
		}
		if sym.Size == 0 {
			continue
		}

		name, err := file.CString(strtabOff + uint64(sym.Name))
		if err != nil {
			return err
		}

		l.Symbols = append(l.Symbols, Symbol{Name: name, Address: sym.Value, Size: sym.Size})
	}

	return nil
}

// Name returns the short name of the library.
func (l *Library) Name() string {
	return filepath.Base(l.Path)
}

// Symbolicate resolves an unslid address against the library's symbol
// table.
func (l *Library) Symbolicate(address uint64) string {
	// The first symbol strictly above the address; the candidate is
	// the one before it.
	i := sort.Search(len(l.Symbols), func(i int) bool {
		return l.Symbols[i].Address > address
	})

	base := "???"
	if i > 0 {
		symbol := l.Symbols[i-1]
		if offset := address - symbol.Address; offset < symbol.Size {
			base = fmt.Sprintf("%s + %d", symbol.Name, offset)
		}
	}

	return fmt.Sprintf("%s (in %s)", base, l.Name())
}
