package rfid

import (
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const xmlTimeFormat = "2006/01/02 15:04:05.000"

// Read is a single tag read reported by an antenna.
type Read struct {
	TagID   string
	At      time.Time
	Antenna uint8
}

// ParticipantID returns the participant id encoded in the tag.
func (r Read) ParticipantID() (int, error) {
	id, err := strconv.Atoi(r.TagID)
	if err != nil {
		return 0, errors.Wrapf(err, "tag %q is not a participant id", r.TagID)
	}
	return id, nil
}

type xmlRead struct {
	TagID         string `xml:"TagID"`
	DiscoveryTime string `xml:"DiscoveryTime"`
	Antenna       uint8  `xml:"Antenna"`
}

// Decode parses a reader payload. XML payloads carry one read; CSV payloads
// carry one "tag,unix_ms,antenna" read per line. XML times are interpreted
// in loc.
func Decode(data []byte, loc *time.Location) ([]Read, error) {
	if isXML(data) {
		r, err := decodeXML(data, loc)
		if err != nil {
			return nil, err
		}
		return []Read{r}, nil
	}
	return decodeCSV(data)
}

func isXML(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(data), []byte("<"))
}

func decodeXML(data []byte, loc *time.Location) (Read, error) {
	var x xmlRead
	if err := xml.Unmarshal(data, &x); err != nil {
		return Read{}, errors.Wrap(err, "xml.Unmarshal")
	}
	at, err := time.ParseInLocation(xmlTimeFormat, strings.TrimSpace(x.DiscoveryTime), loc)
	if err != nil {
		return Read{}, errors.Wrap(err, "time.ParseInLocation DiscoveryTime")
	}
	return Read{
		TagID:   strings.ReplaceAll(x.TagID, " ", ""),
		At:      at,
		Antenna: x.Antenna,
	}, nil
}

func decodeCSV(data []byte) ([]Read, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = ','
	r.FieldsPerRecord = 3

	reads := []Read{}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "csv")
		}

		at, err := decodeTime(record[1])
		if err != nil {
			return nil, err
		}
		antenna, err := strconv.ParseUint(strings.TrimSpace(record[2]), 10, 8)
		if err != nil {
			return nil, errors.Wrap(err, "incorrect antenna position")
		}
		reads = append(reads, Read{
			TagID:   strings.TrimSpace(record[0]),
			At:      at,
			Antenna: uint8(antenna),
		})
	}
	if len(reads) == 0 {
		return nil, errors.New("empty payload")
	}
	return reads, nil
}

func decodeTime(ms string) (time.Time, error) {
	msInt, err := strconv.ParseInt(strings.TrimSpace(ms), 10, 64)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "incorrect time %q", ms)
	}
	return time.UnixMilli(msInt), nil
}
