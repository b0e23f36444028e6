package ingest

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// xmlEvent is the subset of the Windows event schema we read. Tags carry
// no namespace so both namespaced and bare exports match.
type xmlEvent struct {
	System struct {
		Provider struct {
			Name string `xml:"Name,attr"`
		} `xml:"Provider"`
		EventID     string `xml:"EventID"`
		TimeCreated struct {
			SystemTime string `xml:"SystemTime,attr"`
		} `xml:"TimeCreated"`
	} `xml:"System"`
}

// decodeXML reads Event Viewer "Save As XML" files (an <Events> root) and
// wevtutil /f:xml output (a bare sequence of <Event> elements).
func decodeXML(r io.Reader) ([]Raw, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false

	var out []Raw
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("xml: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "Event" {
			continue
		}
		var ev xmlEvent
		if err := dec.DecodeElement(&ev, &start); err != nil {
			return out, fmt.Errorf("xml event: %w", err)
		}
		out = append(out, Raw{
			Timestamp: ev.System.TimeCreated.SystemTime,
			Source:    ev.System.Provider.Name,
			Code:      ev.System.EventID,
		})
	}
}
