package cas

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// fakeIPFS mimics the node's /api/v0 surface closely enough for the
// client: add returns a fixed CID, cat serves stored bytes, unknown
// CIDs answer with the node's JSON error shape.
func fakeIPFS(t *testing.T) (*httptest.Server, map[string][]byte) {
	t.Helper()
	blobs := map[string][]byte{}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v0/add", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)

		cid := "QmTest" + string(rune('A'+len(blobs)))
		blobs[cid] = content
		json.NewEncoder(w).Encode(map[string]string{"Name": "blob", "Hash": cid, "Size": "1"})
	})
	mux.HandleFunc("/api/v0/cat", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("arg")
		content, ok := blobs[id]
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]any{"Message": "merkledag: not found", "Code": 0})
			return
		}
		w.Write(content)
	})
	mux.HandleFunc("/api/v0/pin/rm", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("arg")
		if _, ok := blobs[id]; !ok {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]any{"Message": "not pinned or pinned indirectly", "Code": 0})
			return
		}
		delete(blobs, id)
		json.NewEncoder(w).Encode(map[string]any{"Pins": []string{id}})
	})
	mux.HandleFunc("/api/v0/version", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"Version": "0.24.0"})
	})
	mux.HandleFunc("/api/v0/files/stat", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"Hash": "QmTestA", "Size": 7, "CumulativeSize": 15, "Blocks": 1, "Type": "file"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, blobs
}

func TestIPFSClient_AddCat_RoundTrip(t *testing.T) {
	srv, _ := fakeIPFS(t)
	c := NewIPFSClient(srv.URL, "https://ipfs.io/ipfs/", 0)

	cid, err := c.Add(context.Background(), []byte("distributed bytes"), "a.txt")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if cid == "" {
		t.Fatal("Add returned empty CID")
	}

	got, err := c.Cat(context.Background(), cid)
	if err != nil {
		t.Fatalf("Cat: %v", err)
	}
	if string(got) != "distributed bytes" {
		t.Errorf("Cat = %q, want %q", got, "distributed bytes")
	}
}

func TestIPFSClient_Cat_NotFound(t *testing.T) {
	srv, _ := fakeIPFS(t)
	c := NewIPFSClient(srv.URL, "", 0)

	_, err := c.Cat(context.Background(), "QmNoSuchHash")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Cat(unknown) = %v, want ErrNotFound", err)
	}
}

func TestIPFSClient_Unpin(t *testing.T) {
	srv, blobs := fakeIPFS(t)
	c := NewIPFSClient(srv.URL, "", 0)

	cid, err := c.Add(context.Background(), []byte("pin me"), "")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := c.Unpin(context.Background(), cid); err != nil {
		t.Fatalf("Unpin: %v", err)
	}
	if _, ok := blobs[cid]; ok {
		t.Error("blob still pinned after Unpin")
	}
}

func TestIPFSClient_IsAvailable(t *testing.T) {
	srv, _ := fakeIPFS(t)

	up := NewIPFSClient(srv.URL, "", 0)
	if !up.IsAvailable(context.Background()) {
		t.Error("IsAvailable = false against a responding node")
	}

	srv.Close()
	if up.IsAvailable(context.Background()) {
		t.Error("IsAvailable = true against a closed server")
	}
}

func TestIPFSClient_Stat(t *testing.T) {
	srv, _ := fakeIPFS(t)
	c := NewIPFSClient(srv.URL, "", 0)

	stat, err := c.Stat(context.Background(), "QmTestA")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if stat.Size != 7 || stat.Type != "file" {
		t.Errorf("Stat = %+v, want Size 7 Type file", stat)
	}
}

func TestIPFSClient_GatewayURL(t *testing.T) {
	c := NewIPFSClient("http://localhost:5001", "https://ipfs.io/ipfs/", 0)
	if got := c.GatewayURL("QmX"); got != "https://ipfs.io/ipfs/QmX" {
		t.Errorf("GatewayURL = %q", got)
	}

	none := NewIPFSClient("http://localhost:5001", "", 0)
	if got := none.GatewayURL("QmX"); got != "" {
		t.Errorf("GatewayURL with no gateway = %q, want empty", got)
	}
}
