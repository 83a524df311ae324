package codegen

import "sort"

// MaxKeys is the number of reactive keys a dirty mask can address. Keys past
// it get a zero bit and never trigger a patch; this is not checked.
const MaxKeys = 31

// BitMap assigns each reactive key its own bit
type BitMap map[string]uint32

// BuildBitMap assigns 1<<i to the i-th distinct name, in input order
func BuildBitMap(names []string) BitMap {
	bits := make(BitMap, len(names))
	i := 0
	for _, name := range names {
		if _, dup := bits[name]; dup {
			continue
		}
		if i < MaxKeys {
			bits[name] = uint32(1) << uint(i)
		} else {
			bits[name] = 0
		}
		i++
	}
	return bits
}

// MaskOf ORs the bits of names. Unknown names contribute nothing.
func MaskOf(names []string, bits BitMap) uint32 {
	var mask uint32
	for _, name := range names {
		mask |= bits[name]
	}
	return mask
}

// Names returns the keys whose bits are set in mask, lowest bit first
func (b BitMap) Names(mask uint32) []string {
	var out []string
	for name, bit := range b {
		if bit != 0 && mask&bit != 0 {
			out = append(out, name)
		}
	}
	sort.Slice(out, func(i, j int) bool { return b[out[i]] < b[out[j]] })
	return out
}
