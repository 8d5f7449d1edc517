package table

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestReadCSV(t *testing.T) {
	input := "Region,Zone,Woreda,Health_Facilities\n" +
		"Oromia,East Shewa,Adama,Adama Health Center\n" +
		"Amhara,North Gondar,Debark,Debark Hospital\n"

	tbl, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}

	wantHeaders := []string{"Region", "Zone", "Woreda", "Health_Facilities"}
	if !reflect.DeepEqual(tbl.Headers, wantHeaders) {
		t.Errorf("headers = %v, want %v", tbl.Headers, wantHeaders)
	}

	if tbl.Len() != 2 {
		t.Fatalf("rows = %d, want 2", tbl.Len())
	}
	if got := tbl.Rows[0].Get("Woreda"); got != "Adama" {
		t.Errorf("row 0 Woreda = %q, want \"Adama\"", got)
	}
	if got := tbl.Rows[1].Get("Region"); got != "Amhara" {
		t.Errorf("row 1 Region = %q, want \"Amhara\"", got)
	}
	if tbl.Rows[1].Index != 1 {
		t.Errorf("row 1 index = %d, want 1", tbl.Rows[1].Index)
	}
}

func TestReadCSVStripsBOMAndTrimsHeaders(t *testing.T) {
	input := "\uFEFF Region , Zone\nOromia,East Shewa\n"

	tbl, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}

	wantHeaders := []string{"Region", "Zone"}
	if !reflect.DeepEqual(tbl.Headers, wantHeaders) {
		t.Errorf("headers = %v, want %v", tbl.Headers, wantHeaders)
	}
}

func TestReadCSVRaggedRow(t *testing.T) {
	input := "Region,Zone\nOromia\n"

	_, err := ReadCSV(strings.NewReader(input))
	if err == nil {
		t.Fatal("ReadCSV() error = nil, want MalformedInputError")
	}

	var malformed *MalformedInputError
	if !errors.As(err, &malformed) {
		t.Fatalf("error type = %T, want *MalformedInputError", err)
	}
	if malformed.Line != 2 {
		t.Errorf("line = %d, want 2", malformed.Line)
	}
}

func TestReadCSVEmptyInput(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	if err == nil {
		t.Fatal("ReadCSV() error = nil, want MalformedInputError")
	}

	var malformed *MalformedInputError
	if !errors.As(err, &malformed) {
		t.Fatalf("error type = %T, want *MalformedInputError", err)
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	tbl := New("Region", "Zone")
	tbl.Append([]string{"Oromia", "East Shewa"})
	tbl.Append([]string{"Amhara", "Awi"})

	var buf strings.Builder
	if err := WriteCSV(&buf, tbl); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	back, err := ReadCSV(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if !reflect.DeepEqual(back.Headers, tbl.Headers) {
		t.Errorf("headers = %v, want %v", back.Headers, tbl.Headers)
	}
	if back.Len() != 2 || back.Rows[1].Get("Zone") != "Awi" {
		t.Errorf("round trip lost data: %+v", back.Rows)
	}
}

func TestRecordDerivedColumns(t *testing.T) {
	tbl := New("Region")
	tbl.Append([]string{"Oromia"})

	rec := tbl.Rows[0]
	rec.Set("std_region", "oromia")

	if got := tbl.Rows[0].Get("std_region"); got != "oromia" {
		t.Errorf("derived column = %q, want \"oromia\"", got)
	}
	if got := rec.Get("missing"); got != "" {
		t.Errorf("missing column = %q, want \"\"", got)
	}
}

func TestRecordValuesOrder(t *testing.T) {
	rec := NewRecord(0, []string{"a", "b", "c"}, []string{"1", "2"})

	got := rec.Values([]string{"c", "a", "b"})
	want := []string{"", "1", "2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Values() = %v, want %v", got, want)
	}
}
