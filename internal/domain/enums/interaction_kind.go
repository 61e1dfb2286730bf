package enums

type InteractionKind string

const (
	InteractionKindLike      InteractionKind = "LIKE"
	InteractionKindDislike   InteractionKind = "DISLIKE"
	InteractionKindSuperLike InteractionKind = "SUPERLIKE"
)

// Positive reports whether the kind counts toward mutual-interest matching.
func (k InteractionKind) Positive() bool {
	return k == InteractionKindLike || k == InteractionKindSuperLike
}
