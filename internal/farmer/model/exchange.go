package model

// ChatExchange is one question/answer pair.
type ChatExchange struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// History is the authoritative view of a farmer's past activity. Both lists
// are kept in server order.
type History struct {
	Chats      []ChatExchange          `json:"chats"`
	Detections []DetectionHistoryEntry `json:"detections"`
}

// Clone returns a deep copy so callers can never alias the cached lists.
func (h History) Clone() History {
	out := History{
		Chats:      make([]ChatExchange, len(h.Chats)),
		Detections: make([]DetectionHistoryEntry, len(h.Detections)),
	}
	copy(out.Chats, h.Chats)
	copy(out.Detections, h.Detections)
	return out
}
