package model

type ReactionType string

const (
	ReactionLike  ReactionType = "like"
	ReactionLove  ReactionType = "love"
	ReactionHaha  ReactionType = "haha"
	ReactionWow   ReactionType = "wow"
	ReactionSad   ReactionType = "sad"
	ReactionAngry ReactionType = "angry"
)

var ReactionTypes = []ReactionType{
	ReactionLike,
	ReactionLove,
	ReactionHaha,
	ReactionWow,
	ReactionSad,
	ReactionAngry,
}

func (t ReactionType) Valid() bool {
	for _, v := range ReactionTypes {
		if v == t {
			return true
		}
	}
	return false
}

type Reaction struct {
	ID     string       `json:"id"`
	Type   ReactionType `json:"type"`
	UserID string       `json:"userId"`
	User   *User        `json:"user,omitempty"`
}
