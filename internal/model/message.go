package model

// ImagePart is one image payload pulled out of a mail message.
type ImagePart struct {
	Origin Origin
	Data   []byte
}

// Message is a mail message with its image parts already downloaded.
// Date is pre-formatted in the ledger's time zone.
type Message struct {
	ID     string
	Date   string
	Images []ImagePart
}
