package gmail

import "fmt"

// APIError is the error object the Gmail API returns inside failed
// responses. The handler layer reclassifies it by Code.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gmail api error %d: %s", e.Code, e.Message)
}

type apiErrorEnvelope struct {
	Error *APIError `json:"error"`
}

// Wire types, trimmed to the fields the façade reshapes.

type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type PartBody struct {
	AttachmentID string `json:"attachmentId,omitempty"`
	Size         int    `json:"size,omitempty"`
	Data         string `json:"data,omitempty"`
}

type Part struct {
	PartID   string   `json:"partId,omitempty"`
	MimeType string   `json:"mimeType,omitempty"`
	Filename string   `json:"filename,omitempty"`
	Headers  []Header `json:"headers,omitempty"`
	Body     *PartBody `json:"body,omitempty"`
	Parts    []Part   `json:"parts,omitempty"`
}

type Message struct {
	ID       string   `json:"id"`
	ThreadID string   `json:"threadId"`
	LabelIDs []string `json:"labelIds,omitempty"`
	Snippet  string   `json:"snippet,omitempty"`
	Payload  *Part    `json:"payload,omitempty"`
}

type Thread struct {
	ID       string    `json:"id"`
	Snippet  string    `json:"snippet,omitempty"`
	Messages []Message `json:"messages,omitempty"`
}

type ThreadList struct {
	Threads            []Thread `json:"threads"`
	NextPageToken      string   `json:"nextPageToken,omitempty"`
	ResultSizeEstimate int      `json:"resultSizeEstimate,omitempty"`
}

type MessageList struct {
	Messages           []Message `json:"messages"`
	NextPageToken      string    `json:"nextPageToken,omitempty"`
	ResultSizeEstimate int       `json:"resultSizeEstimate,omitempty"`
}

type Draft struct {
	ID      string   `json:"id"`
	Message *Message `json:"message,omitempty"`
}

type DraftList struct {
	Drafts             []Draft `json:"drafts"`
	NextPageToken      string  `json:"nextPageToken,omitempty"`
	ResultSizeEstimate int     `json:"resultSizeEstimate,omitempty"`
}

type Label struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	MessagesTotal  int    `json:"messagesTotal"`
	MessagesUnread int    `json:"messagesUnread"`
	ThreadsTotal   int    `json:"threadsTotal"`
	ThreadsUnread  int    `json:"threadsUnread"`
}

type WatchResponse struct {
	HistoryID  string `json:"historyId"`
	Expiration string `json:"expiration"`
}

// Reshaped types returned to API clients.

// EmailHeaders is the subset of RFC 822 headers surfaced to clients.
type EmailHeaders struct {
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Cc        string `json:"cc,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Date      string `json:"date,omitempty"`
	MessageID string `json:"message_id,omitempty"`
}

type ThreadMessage struct {
	Headers  EmailHeaders `json:"headers"`
	ID       string       `json:"id"`
	ThreadID string       `json:"threadId"`
	LabelIDs []string     `json:"labelIds"`
	Snippet  string       `json:"snippet"`
}

type ThreadSummary struct {
	ID              string          `json:"id"`
	AttachmentCount int             `json:"attachment_count"`
	Messages        []ThreadMessage `json:"messages"`
}

type Attachment struct {
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
	File     string `json:"file"`
}

type FullMessage struct {
	ThreadMessage
	Body        string       `json:"body"`
	Attachments []Attachment `json:"attachments"`
}

type LabelStats struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	MessagesTotal  int    `json:"messages_total"`
	MessagesUnread int    `json:"messages_unread"`
	ThreadsTotal   int    `json:"threads_total"`
	ThreadsUnread  int    `json:"threads_unread"`
}
