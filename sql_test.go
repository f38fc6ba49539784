package itemid

import (
	"encoding/json"
	"testing"
)

func TestCasts(t *testing.T) {
	if got, want := vectorID.MySQLCast(), "CAST(X'14fb3ee4b75dce3d' AS UNSIGNED)"; got != want {
		t.Errorf("MySQLCast() = %q, want %q", got, want)
	}
	if got, want := vectorID.PostgresCast(), "CAST(X'14fb3ee4b75dce3d' AS bigint)"; got != want {
		t.Errorf("PostgresCast() = %q, want %q", got, want)
	}
	// Always the fixed-width hex form, even for small values.
	if got, want := ID(1).MySQLCast(), "CAST(X'0000000000000001' AS UNSIGNED)"; got != want {
		t.Errorf("MySQLCast() = %q, want %q", got, want)
	}
}

func TestIDSQL(t *testing.T) {
	t.Run("Value", testIDSQLValue)
	t.Run("Scan", func(t *testing.T) {
		t.Run("Int64", testIDSQLScanInt64)
		t.Run("String", testIDSQLScanString)
		t.Run("Bytes", testIDSQLScanBytes)
		t.Run("ID", testIDSQLScanID)
		t.Run("Unsupported", testIDSQLScanUnsupported)
		t.Run("Nil", testIDSQLScanNil)
	})
}

func testIDSQLValue(t *testing.T) {
	v, err := vectorID.Value()
	if err != nil {
		t.Fatal(err)
	}
	got, ok := v.(int64)
	if !ok {
		t.Fatalf("Value() returned %T, want int64", v)
	}
	if want := vectorID.Int64(); got != want {
		t.Errorf("Value() == %d, want %d", got, want)
	}
}

func testIDSQLScanInt64(t *testing.T) {
	var got ID
	err := got.Scan(vectorID.Int64())
	if err != nil {
		t.Fatal(err)
	}
	if got != vectorID {
		t.Errorf("Scan(%d): got %v, want %v", vectorID.Int64(), got, vectorID)
	}
}

func testIDSQLScanString(t *testing.T) {
	var got ID
	err := got.Scan(vectorHex)
	if err != nil {
		t.Fatal(err)
	}
	if got != vectorID {
		t.Errorf("Scan(%q): got %v, want %v", vectorHex, got, vectorID)
	}
}

func testIDSQLScanBytes(t *testing.T) {
	var got ID
	err := got.Scan([]byte(vectorHex))
	if err != nil {
		t.Fatal(err)
	}
	if got != vectorID {
		t.Errorf("Scan(%q): got %v, want %v", vectorHex, got, vectorID)
	}
}

func testIDSQLScanID(t *testing.T) {
	var got ID
	err := got.Scan(vectorID)
	if err != nil {
		t.Fatal(err)
	}
	if got != vectorID {
		t.Errorf("Scan(ID): got %v, want %v", got, vectorID)
	}
}

func testIDSQLScanUnsupported(t *testing.T) {
	var got ID
	if err := got.Scan(3.14); err == nil {
		t.Error("Scan(float64): want err != nil")
	}
}

func testIDSQLScanNil(t *testing.T) {
	got := vectorID
	if err := got.Scan(nil); err != nil {
		t.Fatal(err)
	}
	if got != Nil {
		t.Errorf("Scan(nil): got %v, want Nil", got)
	}
}

func TestNullID(t *testing.T) {
	t.Run("Value", func(t *testing.T) {
		v, err := NullID{}.Value()
		if err != nil {
			t.Fatal(err)
		}
		if v != nil {
			t.Errorf("invalid NullID.Value() = %v, want nil", v)
		}

		v, err = NullID{ID: vectorID, Valid: true}.Value()
		if err != nil {
			t.Fatal(err)
		}
		if v != vectorID.Int64() {
			t.Errorf("NullID.Value() = %v, want %d", v, vectorID.Int64())
		}
	})
	t.Run("Scan", func(t *testing.T) {
		var n NullID
		if err := n.Scan(nil); err != nil {
			t.Fatal(err)
		}
		if n.Valid {
			t.Error("Scan(nil): Valid = true, want false")
		}

		if err := n.Scan(vectorID.Int64()); err != nil {
			t.Fatal(err)
		}
		if !n.Valid || n.ID != vectorID {
			t.Errorf("Scan(int64): got %+v, want valid %v", n, vectorID)
		}
	})
	t.Run("JSON", func(t *testing.T) {
		b, err := json.Marshal(NullID{})
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != "null" {
			t.Errorf("Marshal(invalid) = %s, want null", b)
		}

		b, err = json.Marshal(NullID{ID: vectorID, Valid: true})
		if err != nil {
			t.Fatal(err)
		}
		if want := `"` + vectorHex + `"`; string(b) != want {
			t.Errorf("Marshal = %s, want %s", b, want)
		}

		var n NullID
		if err := json.Unmarshal([]byte("null"), &n); err != nil {
			t.Fatal(err)
		}
		if n.Valid {
			t.Error("Unmarshal(null): Valid = true, want false")
		}
		if err := json.Unmarshal([]byte(`"`+vectorHex+`"`), &n); err != nil {
			t.Fatal(err)
		}
		if !n.Valid || n.ID != vectorID {
			t.Errorf("Unmarshal: got %+v, want valid %v", n, vectorID)
		}
	})
	t.Run("Text", func(t *testing.T) {
		b, err := NullID{}.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		if len(b) != 0 {
			t.Errorf("MarshalText(invalid) = %q, want empty", b)
		}

		var n NullID
		if err := n.UnmarshalText([]byte(vectorHex)); err != nil {
			t.Fatal(err)
		}
		if !n.Valid || n.ID != vectorID {
			t.Errorf("UnmarshalText: got %+v, want valid %v", n, vectorID)
		}
		if err := n.UnmarshalText(nil); err != nil {
			t.Fatal(err)
		}
		if n.Valid {
			t.Error("UnmarshalText(empty): Valid = true, want false")
		}
	})
}
