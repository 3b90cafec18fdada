package rebrickable

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/osse101/BrickManager_Go/internal/domain"
	"github.com/osse101/BrickManager_Go/internal/logger"
)

type remoteListJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type partListLineJSON struct {
	Quantity int `json:"quantity"`
	Part     struct {
		PartNum string `json:"part_num"`
	} `json:"part"`
	Color struct {
		ID int `json:"id"`
	} `json:"color"`
}

type setListLineJSON struct {
	Quantity int `json:"quantity"`
	Set      struct {
		SetNum string `json:"set_num"`
	} `json:"set"`
}

type partWriteJSON struct {
	PartNum  string `json:"part_num"`
	ColorID  int    `json:"color_id"`
	Quantity int    `json:"quantity"`
}

type setWriteJSON struct {
	SetNum   string `json:"set_num"`
	Quantity int    `json:"quantity"`
}

// PushEnabled reports whether account lists can be written
func (c *Client) PushEnabled() bool {
	return c.userToken != ""
}

func (c *Client) userPath(segments ...string) (string, error) {
	if c.userToken == "" {
		return "", domain.ErrPushDisabled
	}
	p := c.usersURL + url.PathEscape(c.userToken) + "/"
	for _, s := range segments {
		p += url.PathEscape(s) + "/"
	}
	return p, nil
}

// PartLists returns every part list on the account
func (c *Client) PartLists(ctx context.Context) ([]domain.RemoteList, error) {
	return c.remoteLists(ctx, "partlists")
}

// SetLists returns every set list on the account
func (c *Client) SetLists(ctx context.Context) ([]domain.RemoteList, error) {
	return c.remoteLists(ctx, "setlists")
}

// CreatePartList creates a buildable part list
func (c *Client) CreatePartList(ctx context.Context, name string) (domain.RemoteList, error) {
	return c.createList(ctx, "partlists", name)
}

// CreateSetList creates a buildable set list
func (c *Client) CreateSetList(ctx context.Context, name string) (domain.RemoteList, error) {
	return c.createList(ctx, "setlists", name)
}

// PartListParts returns every line of a part list
func (c *Client) PartListParts(ctx context.Context, listID int64) ([]domain.ListPart, error) {
	base, err := c.userPath("partlists", strconv.FormatInt(listID, 10), "parts")
	if err != nil {
		return nil, err
	}
	raw, err := c.listAll(ctx, base)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ListPart, 0, len(raw))
	for _, r := range raw {
		var line partListLineJSON
		if err := json.Unmarshal(r, &line); err != nil {
			return nil, fmt.Errorf("%w: "+ErrMsgDecodeResponse, domain.ErrTransport, err)
		}
		out = append(out, domain.ListPart{PartNum: line.Part.PartNum, ColorID: line.Color.ID, Quantity: line.Quantity})
	}
	return out, nil
}

// SetListSets returns every line of a set list
func (c *Client) SetListSets(ctx context.Context, listID int64) ([]domain.ListSet, error) {
	base, err := c.userPath("setlists", strconv.FormatInt(listID, 10), "sets")
	if err != nil {
		return nil, err
	}
	raw, err := c.listAll(ctx, base)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ListSet, 0, len(raw))
	for _, r := range raw {
		var line setListLineJSON
		if err := json.Unmarshal(r, &line); err != nil {
			return nil, fmt.Errorf("%w: "+ErrMsgDecodeResponse, domain.ErrTransport, err)
		}
		out = append(out, domain.ListSet{SetNum: line.Set.SetNum, Quantity: line.Quantity})
	}
	return out, nil
}

// AddPartListParts adds lines to a part list in bulk requests of at most
// WriteBatchSize lines
func (c *Client) AddPartListParts(ctx context.Context, listID int64, parts []domain.ListPart) error {
	base, err := c.userPath("partlists", strconv.FormatInt(listID, 10), "parts")
	if err != nil {
		return err
	}
	body := make([]partWriteJSON, len(parts))
	for i, p := range parts {
		body[i] = partWriteJSON{PartNum: p.PartNum, ColorID: p.ColorID, Quantity: p.Quantity}
	}
	return c.postBatches(ctx, base, len(body), func(lo, hi int) any { return body[lo:hi] })
}

// AddSetListSets adds lines to a set list in bulk requests of at most
// WriteBatchSize lines
func (c *Client) AddSetListSets(ctx context.Context, listID int64, sets []domain.ListSet) error {
	base, err := c.userPath("setlists", strconv.FormatInt(listID, 10), "sets")
	if err != nil {
		return err
	}
	body := make([]setWriteJSON, len(sets))
	for i, s := range sets {
		body[i] = setWriteJSON{SetNum: s.SetNum, Quantity: s.Quantity}
	}
	return c.postBatches(ctx, base, len(body), func(lo, hi int) any { return body[lo:hi] })
}

// DeletePartListPart removes one line from a part list. A line that is
// already gone counts as removed.
func (c *Client) DeletePartListPart(ctx context.Context, listID int64, partNum string, colorID int) error {
	u, err := c.userPath("partlists", strconv.FormatInt(listID, 10), "parts", partNum, strconv.Itoa(colorID))
	if err != nil {
		return err
	}
	return c.delete(ctx, u)
}

// DeleteSetListSet removes one set from a set list
func (c *Client) DeleteSetListSet(ctx context.Context, listID int64, setNum string) error {
	u, err := c.userPath("setlists", strconv.FormatInt(listID, 10), "sets", setNum)
	if err != nil {
		return err
	}
	return c.delete(ctx, u)
}

func (c *Client) remoteLists(ctx context.Context, collection string) ([]domain.RemoteList, error) {
	base, err := c.userPath(collection)
	if err != nil {
		return nil, err
	}
	raw, err := c.listAll(ctx, base)
	if err != nil {
		return nil, err
	}
	out := make([]domain.RemoteList, 0, len(raw))
	for _, r := range raw {
		var l remoteListJSON
		if err := json.Unmarshal(r, &l); err != nil {
			return nil, fmt.Errorf("%w: "+ErrMsgDecodeResponse, domain.ErrTransport, err)
		}
		out = append(out, domain.RemoteList{ID: l.ID, Name: l.Name})
	}
	return out, nil
}

func (c *Client) createList(ctx context.Context, collection, name string) (domain.RemoteList, error) {
	u, err := c.userPath(collection)
	if err != nil {
		return domain.RemoteList{}, err
	}
	form := url.Values{}
	form.Set("name", name)
	form.Set("is_buildable", "true")

	status, body, err := c.send(ctx, http.MethodPost, u, []byte(form.Encode()), contentTypeForm)
	if err != nil {
		return domain.RemoteList{}, err
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return domain.RemoteList{}, fmt.Errorf("%w: "+ErrMsgUnexpectedCode, domain.ErrTransport, status, u)
	}
	var l remoteListJSON
	if err := json.Unmarshal(body, &l); err != nil {
		return domain.RemoteList{}, fmt.Errorf("%w: "+ErrMsgDecodeResponse, domain.ErrTransport, err)
	}
	logger.FromContext(ctx).Info(LogMsgListCreated, "collection", collection, "list_id", l.ID, "name", l.Name)
	return domain.RemoteList{ID: l.ID, Name: l.Name}, nil
}

// listAll follows the next links of an account collection
func (c *Client) listAll(ctx context.Context, base string) ([]json.RawMessage, error) {
	var out []json.RawMessage
	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("page", strconv.Itoa(page))
		params.Set("page_size", strconv.Itoa(ListPageSize))

		body, done, err := c.get(ctx, base+"?"+params.Encode())
		if err != nil {
			return nil, err
		}
		if done {
			return out, nil
		}
		var resp listResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("%w: "+ErrMsgDecodeResponse, domain.ErrTransport, err)
		}
		out = append(out, resp.Results...)
		if resp.Next == nil || *resp.Next == "" {
			return out, nil
		}
	}
}

func (c *Client) postBatches(ctx context.Context, u string, n int, slice func(lo, hi int) any) error {
	for lo := 0; lo < n; lo += WriteBatchSize {
		hi := min(lo+WriteBatchSize, n)
		payload, err := json.Marshal(slice(lo, hi))
		if err != nil {
			return fmt.Errorf(ErrMsgEncodeRequest, err)
		}
		logger.FromContext(ctx).Debug(LogMsgListEntriesAdd, "url", u, "from", lo, "count", hi-lo)

		status, _, err := c.send(ctx, http.MethodPost, u, payload, contentTypeJSON)
		if err != nil {
			return err
		}
		if status != http.StatusCreated && status != http.StatusOK {
			return fmt.Errorf("%w: "+ErrMsgUnexpectedCode, domain.ErrTransport, status, u)
		}
	}
	return nil
}

func (c *Client) delete(ctx context.Context, u string) error {
	status, _, err := c.send(ctx, http.MethodDelete, u, nil, "")
	if err != nil {
		return err
	}
	switch status {
	case http.StatusNoContent, http.StatusOK, http.StatusNotFound:
		return nil
	}
	return fmt.Errorf("%w: "+ErrMsgUnexpectedCode, domain.ErrTransport, status, u)
}
