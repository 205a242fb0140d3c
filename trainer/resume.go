package trainer

import "os"
import "path/filepath"
import "regexp"
import "sort"
import "strconv"

import "github.com/pkg/errors"

var checkpointPattern = regexp.MustCompile(`^ann_(\d{6})\.e(\d{4,})\.json\.t\.lzw$`)
var trainedPattern = regexp.MustCompile(`^ann_trained_(\d{6})\.json\.t\.lzw$`)

// Resume scans dir for snapshots written by SnapshotPusher. It returns one entry per
// task with a checkpoint and no trained snapshot, starting at the checkpoint's epoch
// (the latest checkpoint wins), sorted by index, and the set of already trained indexes.
// load turns a snapshot file into a model.
func Resume(dir string, load func(path string) (Model, error)) (entries []Entry, trained map[int]bool, err error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "read snapshot dir %s", dir)
	}

	trained = make(map[int]bool)
	latest := make(map[int]int)
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		if m := trainedPattern.FindStringSubmatch(f.Name()); m != nil {
			index, _ := strconv.Atoi(m[1])
			trained[index] = true
			continue
		}
		if m := checkpointPattern.FindStringSubmatch(f.Name()); m != nil {
			index, _ := strconv.Atoi(m[1])
			epoch, _ := strconv.Atoi(m[2])
			if e, ok := latest[index]; !ok || epoch > e {
				latest[index] = epoch
			}
		}
	}

	for index, epoch := range latest {
		if trained[index] {
			continue
		}
		model, err := load(filepath.Join(dir, CheckpointName(index, epoch)))
		if err != nil {
			return nil, nil, errors.Wrapf(err, "load checkpoint of task %d", index)
		}
		entries = append(entries, Entry{Index: index, Model: model, StartEpoch: epoch})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Index < entries[j].Index })
	return entries, trained, nil
}
