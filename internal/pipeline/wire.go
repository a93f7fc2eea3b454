package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
)

// inboundEnvelope and inboundRecord mirror the dispatcher's inbound
// event shape (spec §6): a list of records, each carrying an opaque
// messageId and a JSON-encoded body describing the S3 object.
type inboundEnvelope struct {
	Records []inboundRecord `json:"Records"`
}

type inboundRecord struct {
	MessageID string `json:"messageId"`
	Body      string `json:"body"`
}

type inboundBody struct {
	S3 struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key string `json:"key"`
		} `json:"object"`
	} `json:"s3"`
	AWSRegion string `json:"awsRegion"`
}

// DecodeNotifications reads the dispatcher's inbound event shape and
// returns one Notification per record, in order.
func DecodeNotifications(r io.Reader) ([]Notification, error) {
	var env inboundEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}

	notifications := make([]Notification, 0, len(env.Records))
	for _, rec := range env.Records {
		var body inboundBody
		if err := json.Unmarshal([]byte(rec.Body), &body); err != nil {
			return nil, fmt.Errorf("decode notification %s body: %w", rec.MessageID, err)
		}
		notifications = append(notifications, Notification{
			ID:     rec.MessageID,
			Bucket: body.S3.Bucket.Name,
			Key:    body.S3.Object.Key,
			Region: body.AWSRegion,
		})
	}
	return notifications, nil
}

// outboundFailureReport mirrors spec §6's outbound shape: any
// notification not listed here is considered successfully processed.
type outboundFailureReport struct {
	BatchItemFailures []batchItemFailure `json:"batchItemFailures"`
}

type batchItemFailure struct {
	ItemIdentifier string `json:"itemIdentifier"`
}

// EncodeFailureReport writes the outbound failure report for the ids
// Run returned.
func EncodeFailureReport(w io.Writer, failed []string) error {
	report := outboundFailureReport{BatchItemFailures: make([]batchItemFailure, 0, len(failed))}
	for _, id := range failed {
		report.BatchItemFailures = append(report.BatchItemFailures, batchItemFailure{ItemIdentifier: id})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
