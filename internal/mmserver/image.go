package mmserver

import (
	"fmt"
	"io"
	"os"
)

// maxImageSize bounds FetchApplicationImage responses (spec §4.F, grounded
// on mm-server/src/server/handlers.rs's read_file helper and
// crate::config::MAX_IMAGE_SIZE).
const maxImageSize = 4 << 20

// readImageFile reads an application's header image off disk, rejecting
// empty or oversized files the same way the original read_file does.
func readImageFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("file is empty")
	}
	if len(data) > maxImageSize {
		return nil, fmt.Errorf("file is bigger than maximum size")
	}
	return data, nil
}
