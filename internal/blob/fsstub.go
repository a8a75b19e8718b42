package blob

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/copyutil"
)

// FSStub implements Uploader against a local directory tree, one
// subdirectory per container. It is the "filesystem stub for tests" named
// in the design notes, and doubles as a local/dev backend when
// Storage.Provider=fs.
type FSStub struct {
	root string

	mu       sync.Mutex
	objects  map[string][]byte // "container/object" -> contents, for test assertions
	failNext error             // when set, the next Upload call returns this error and clears it
}

// NewFSStub roots the stub at dir, creating it if absent.
func NewFSStub(dir string) (*FSStub, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FSStub{root: dir, objects: map[string][]byte{}}, nil
}

// FailNextUpload makes the next Upload call return err instead of
// succeeding — used by processor tests to exercise retry/backoff paths.
func (f *FSStub) FailNextUpload(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = err
}

func (f *FSStub) Upload(ctx context.Context, localPath string, ref ObjectRef, sha256Hex string) error {
	f.mu.Lock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		f.mu.Unlock()
		return err
	}
	f.mu.Unlock()

	dst := filepath.Join(f.root, ref.Container, ref.Object)
	if err := copyutil.CopyAtomic(localPath, dst); err != nil {
		return Transient(err)
	}

	contents, err := os.ReadFile(dst)
	if err != nil {
		return Transient(err)
	}
	f.mu.Lock()
	f.objects[ref.Container+"/"+ref.Object] = contents
	f.mu.Unlock()
	return nil
}

// Contents returns what was uploaded to container/object, for test
// assertions.
func (f *FSStub) Contents(container, object string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[container+"/"+object]
	return b, ok
}

// VerifyUpload re-stats the copied file. The stub keeps no separate
// checksum store, so CRC32C verification is reported unsupported.
func (f *FSStub) VerifyUpload(ctx context.Context, ref ObjectRef, expectedSize int64, expectedCRC32C uint32) (VerifyResult, error) {
	info, err := os.Stat(filepath.Join(f.root, ref.Container, ref.Object))
	if err != nil {
		return VerifyResult{}, err
	}
	return VerifyResult{SizeMatches: info.Size() == expectedSize}, nil
}

func (f *FSStub) ListContainers(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (f *FSStub) Probe(ctx context.Context) ProbeResult {
	if _, err := os.Stat(f.root); err != nil {
		return ProbeResult{Connected: false, Reason: err.Error()}
	}
	return ProbeResult{Connected: true}
}
