package salad_test

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/reoring/salad"
	"github.com/reoring/salad/loader"
)

// generateRecords returns a JSON array of objects of the form:
// [{"id":"obj_0","name":"n0","age":0,"active":true,"meta":{"score":0},"k0":"v0_0",...}, ...]
func generateRecords(numObjects int, extraFields int) []byte {
	var buf bytes.Buffer
	buf.Grow(numObjects * (64 + extraFields*16))
	buf.WriteByte('[')
	for i := 0; i < numObjects; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		fmt.Fprintf(&buf, "\"id\":\"obj_%d\",", i)
		fmt.Fprintf(&buf, "\"name\":\"n%d\",", i)
		fmt.Fprintf(&buf, "\"age\":%d,", i)
		if i%2 == 0 {
			buf.WriteString("\"active\":true,")
		} else {
			buf.WriteString("\"active\":false,")
		}
		fmt.Fprintf(&buf, "\"meta\":{\"score\":%d}", i)
		for k := 0; k < extraFields; k++ {
			buf.WriteString(",\"k")
			buf.WriteString(strconv.Itoa(k))
			buf.WriteString("\":\"v")
			buf.WriteString(strconv.Itoa(i))
			buf.WriteString("_")
			buf.WriteString(strconv.Itoa(k))
			buf.WriteString("\"")
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

func Benchmark_ParseDocument_JSON(b *testing.B) {
	data := string(generateRecords(1000, 8))
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := salad.ParseDocument(data, salad.DefaultParseOpt()); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_ParseDocument_YAML(b *testing.B) {
	doc, err := salad.ParseDocument(string(generateRecords(1000, 8)), salad.DefaultParseOpt())
	if err != nil {
		b.Fatal(err)
	}
	text, err := salad.EncodeYAML(doc)
	if err != nil {
		b.Fatal(err)
	}
	data := string(text)
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := salad.ParseDocument(data, salad.DefaultParseOpt()); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_LoadDocument_ArrayOfMaps(b *testing.B) {
	ctx := context.Background()
	data := string(generateRecords(1000, 0))
	root := loader.Array(loader.Map("record", loader.Any(), ""))
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// a fresh session each round so the index does not serve the result
		if _, err := salad.LoadDocumentByString(ctx, root, data, "file:///bench/records.json", nil); err != nil {
			b.Fatal(err)
		}
	}
}
