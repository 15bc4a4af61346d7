package vpack

// ValueType is the kind of a value as described by its leading tag byte.
type ValueType uint8

const (
	TypeNone ValueType = iota
	TypeIllegal
	TypeNull
	TypeBool
	TypeArray
	TypeObject
	TypeDouble
	TypeUTCDate
	TypeExternal
	TypeMinKey
	TypeMaxKey
	TypeInt
	TypeUInt
	TypeSmallInt
	TypeString
	TypeBinary
	TypeBCD
	TypeCustom
	TypeTagged
)

var typeNames = [...]string{
	TypeNone:     "none",
	TypeIllegal:  "illegal",
	TypeNull:     "null",
	TypeBool:     "bool",
	TypeArray:    "array",
	TypeObject:   "object",
	TypeDouble:   "double",
	TypeUTCDate:  "utc-date",
	TypeExternal: "external",
	TypeMinKey:   "min-key",
	TypeMaxKey:   "max-key",
	TypeInt:      "int",
	TypeUInt:     "uint",
	TypeSmallInt: "smallint",
	TypeString:   "string",
	TypeBinary:   "binary",
	TypeBCD:      "bcd",
	TypeCustom:   "custom",
	TypeTagged:   "tagged",
}

func (t ValueType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// Tag bytes of the binary layout.
const (
	tagNone           = 0x00
	tagEmptyArray     = 0x01
	tagArrayEqual     = 0x02 // 0x02-0x05, no index, equal sized members
	tagArrayIndexed   = 0x06 // 0x06-0x09
	tagEmptyObject    = 0x0a
	tagObjectSorted   = 0x0b // 0x0b-0x0e
	tagObjectUnsorted = 0x0f // 0x0f-0x12
	tagCompactArray   = 0x13
	tagCompactObject  = 0x14
	tagIllegal        = 0x17
	tagNull           = 0x18
	tagFalse          = 0x19
	tagTrue           = 0x1a
	tagDouble         = 0x1b
	tagUTCDate        = 0x1c
	tagExternal       = 0x1d
	tagMinKey         = 0x1e
	tagMaxKey         = 0x1f
	tagInt            = 0x20 // 0x20-0x27, 1-8 bytes
	tagUInt           = 0x28 // 0x28-0x2f, 1-8 bytes
	tagSmallIntPos    = 0x30 // 0x30-0x39 = 0..9
	tagSmallIntNeg    = 0x3a // 0x3a-0x3f = -6..-1
	tagShortString    = 0x40 // 0x40-0xbe, length 0..126
	tagLongString     = 0xbf
	tagBinary         = 0xc0 // 0xc0-0xc7, 1-8 length bytes
	tagBCDPos         = 0xc8
	tagBCDNeg         = 0xd0
	tagTagged1        = 0xee
	tagTagged8        = 0xef
	tagCustom         = 0xf0
)

const (
	maxShortString = 126
	// CompactThreshold is the member count below which Auto layout closes a
	// container without an index table.
	CompactThreshold = 4
	// headerReserve is the placeholder written by OpenArray/OpenObject:
	// one tag byte and room for an 8 byte length.
	headerReserve = 9
)

var typeTable [256]ValueType

// fixedSizes holds the byte size of values whose size follows from the tag
// alone; 0 means the size is stored inside the value.
var fixedSizes [256]uint8

func init() {
	for i := 0; i < 256; i++ {
		typeTable[i] = TypeNone
	}
	typeTable[tagEmptyArray] = TypeArray
	for h := 0x02; h <= 0x09; h++ {
		typeTable[h] = TypeArray
	}
	typeTable[tagEmptyObject] = TypeObject
	for h := 0x0b; h <= 0x12; h++ {
		typeTable[h] = TypeObject
	}
	typeTable[tagCompactArray] = TypeArray
	typeTable[tagCompactObject] = TypeObject
	typeTable[tagIllegal] = TypeIllegal
	typeTable[tagNull] = TypeNull
	typeTable[tagFalse] = TypeBool
	typeTable[tagTrue] = TypeBool
	typeTable[tagDouble] = TypeDouble
	typeTable[tagUTCDate] = TypeUTCDate
	typeTable[tagExternal] = TypeExternal
	typeTable[tagMinKey] = TypeMinKey
	typeTable[tagMaxKey] = TypeMaxKey
	for h := tagInt; h < tagInt+8; h++ {
		typeTable[h] = TypeInt
		fixedSizes[h] = uint8(h - tagInt + 2)
	}
	for h := tagUInt; h < tagUInt+8; h++ {
		typeTable[h] = TypeUInt
		fixedSizes[h] = uint8(h - tagUInt + 2)
	}
	for h := tagSmallIntPos; h <= 0x3f; h++ {
		typeTable[h] = TypeSmallInt
		fixedSizes[h] = 1
	}
	for h := tagShortString; h <= tagLongString; h++ {
		typeTable[h] = TypeString
	}
	for h := tagShortString; h < tagLongString; h++ {
		fixedSizes[h] = uint8(h - tagShortString + 1)
	}
	for h := tagBinary; h < tagBinary+8; h++ {
		typeTable[h] = TypeBinary
	}
	for h := tagBCDPos; h < tagBCDNeg+8; h++ {
		typeTable[h] = TypeBCD
	}
	typeTable[tagTagged1] = TypeTagged
	typeTable[tagTagged8] = TypeTagged
	for h := tagCustom; h <= 0xff; h++ {
		typeTable[h] = TypeCustom
	}

	for _, h := range []int{tagNone, tagEmptyArray, tagEmptyObject, tagIllegal,
		tagNull, tagFalse, tagTrue, tagMinKey, tagMaxKey} {
		fixedSizes[h] = 1
	}
	fixedSizes[tagDouble] = 9
	fixedSizes[tagUTCDate] = 9
	fixedSizes[tagExternal] = 9
	fixedSizes[0xf0] = 2
	fixedSizes[0xf1] = 3
	fixedSizes[0xf2] = 5
	fixedSizes[0xf3] = 9
}

// TypeOfHead returns the ValueType described by a tag byte.
func TypeOfHead(h byte) ValueType { return typeTable[h] }

// widthOfIndexed returns the offset width of an indexed container head.
func widthOfIndexed(h byte) int {
	switch {
	case h >= tagArrayEqual && h <= 0x05:
		return 1 << (h - tagArrayEqual)
	case h >= tagArrayIndexed && h <= 0x09:
		return 1 << (h - tagArrayIndexed)
	case h >= tagObjectSorted && h <= 0x0e:
		return 1 << (h - tagObjectSorted)
	case h >= tagObjectUnsorted && h <= 0x12:
		return 1 << (h - tagObjectUnsorted)
	}
	return 0
}

func log2Width(w int) byte {
	switch w {
	case 1:
		return 0
	case 2:
		return 1
	case 4:
		return 2
	}
	return 3
}

// customLengthWidth returns how many length bytes follow a custom tag that
// stores its payload size, 0 for the fixed size custom tags.
func customLengthWidth(h byte) int {
	switch {
	case h >= 0xf4 && h <= 0xf6:
		return 1
	case h >= 0xf7 && h <= 0xf9:
		return 2
	case h >= 0xfa && h <= 0xfc:
		return 4
	case h >= 0xfd:
		return 8
	}
	return 0
}
