package logdb

import "encoding/binary"

// UpdateMilestone overwrites the opaque 8-byte milestone slot in the
// data file header in place. It is meaningless to the engine itself;
// callers such as a consensus implementation use it to record a commit
// index.
func (s *Store) UpdateMilestone(value uint64) error {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, value)
	if err := s.dat.writeAt(buf, datHeaderSize-8); err != nil {
		return newErr(CodeWriteDat, err)
	}
	if err := s.dat.flush(); err != nil {
		return newErr(CodeWriteDat, err)
	}

	s.dataMu.Lock()
	s.st.milestone = value
	s.dataMu.Unlock()
	return nil
}
