package model

// Kind selects the endpoint family used to mutate a node.
type Kind int

const (
	TopLevelComment Kind = iota
	FirstLevelReply
	NestedReply
)

func KindForDepth(depth int) Kind {
	switch {
	case depth <= 0:
		return TopLevelComment
	case depth == 1:
		return FirstLevelReply
	default:
		return NestedReply
	}
}

func (k Kind) String() string {
	switch k {
	case TopLevelComment:
		return "comment"
	case FirstLevelReply:
		return "reply"
	case NestedReply:
		return "nested-reply"
	}
	return "unknown"
}
