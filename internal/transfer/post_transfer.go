package transfer

// PostRequest is the body of POST /api/posts. ScheduledFor accepts RFC 3339
// or a wall-clock "2006-01-02T15:04" interpreted in Timezone.
type PostRequest struct {
	AccountID    string   `json:"account_id"`
	Caption      string   `json:"caption"`
	MediaURLs    []string `json:"media_urls"`
	MediaType    string   `json:"media_type"`
	ScheduledFor string   `json:"scheduled_for"`
	Timezone     string   `json:"timezone"`
}

// PostPatch is the body of PATCH /api/posts/:id. Nil fields are left unchanged.
type PostPatch struct {
	AccountID    *string   `json:"account_id"`
	Caption      *string   `json:"caption"`
	MediaURLs    *[]string `json:"media_urls"`
	MediaType    *string   `json:"media_type"`
	ScheduledFor *string   `json:"scheduled_for"`
	Timezone     *string   `json:"timezone"`
}
