package transaction

import "fmt"

// Tag is a type of a field in a tagged signature blob.
type Tag = byte

// Tags of signature blob fields. These values are a part of the wire format.
const (
	TagTimestamp      Tag = 0x01
	TagPublicKey      Tag = 0x02
	TagCreateDuration Tag = 0x03
	TagOther          Tag = 0xF0
	TagPurpose        Tag = 0xFE
	TagSignature      Tag = 0xFF
)

// Kind is the type of a transaction body.
type Kind uint8

// Transaction kinds.
const (
	KindGeneric  Kind = 0x10
	KindRegister Kind = 0x11
	KindDeploy   Kind = 0x12
	KindPatch    Kind = 0x13
	KindBlock    Kind = 0x14
)

// String implements the stringer interface.
func (k Kind) String() string {
	switch k {
	case KindGeneric:
		return "generic"
	case KindRegister:
		return "register"
	case KindDeploy:
		return "deploy"
	case KindPatch:
		return "patch"
	case KindBlock:
		return "block"
	default:
		return fmt.Sprintf("kind(0x%02x)", uint8(k))
	}
}

// Purpose describes the role of a value movement.
type Purpose uint8

// Purposes.
const (
	PurposeTransfer Purpose = 0x00
	PurposeSrcFee   Purpose = 0x01
	PurposeDstFee   Purpose = 0x02
	PurposeGas      Purpose = 0x03
)

// String implements the stringer interface.
func (p Purpose) String() string {
	switch p {
	case PurposeTransfer:
		return "transfer"
	case PurposeSrcFee:
		return "srcfee"
	case PurposeDstFee:
		return "dstfee"
	case PurposeGas:
		return "gas"
	default:
		return fmt.Sprintf("purpose(0x%02x)", uint8(p))
	}
}
