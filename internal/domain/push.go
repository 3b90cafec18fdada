package domain

// RemoteList is a part list or set list on the catalog account
type RemoteList struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ListPart is one part line of a remote part list
type ListPart struct {
	PartNum  string `json:"part_num"`
	ColorID  int    `json:"color_id"`
	Quantity int    `json:"quantity"`
}

// Key identifies the line within its list
func (p ListPart) Key() PartColorKey {
	return PartColorKey{PartNum: p.PartNum, ColorID: p.ColorID}
}

// PartColorKey pairs a part number with a color
type PartColorKey struct {
	PartNum string
	ColorID int
}

// ListSet is one set line of a remote set list
type ListSet struct {
	SetNum   string `json:"set_num"`
	Quantity int    `json:"quantity"`
}

// PushTarget names which remote list a push writes
type PushTarget string

const (
	PushMissingParts PushTarget = "missing-parts"
	PushOwnedSets    PushTarget = "owned-sets"
)

// PushResult reports one push of local state to a remote list. Failed holds
// the keys of lines the remote side refused; the next push retries them.
type PushResult struct {
	Target      PushTarget `json:"target"`
	ListID      int64      `json:"list_id"`
	ListName    string     `json:"list_name"`
	ListCreated bool       `json:"list_created"`
	Local       int        `json:"local"`
	Remote      int        `json:"remote"`
	Added       int        `json:"added"`
	Updated     int        `json:"updated"`
	Removed     int        `json:"removed"`
	Unchanged   int        `json:"unchanged"`
	Failed      []string   `json:"failed"`
}
