package logdb

// Close closes both files of the store. It is safe to call multiple
// times, including after a failed Open, so that recovery paths can defer
// it unconditionally.
func (s *Store) Close() error {
	var err error
	if e := s.dat.close(); e != nil {
		err = e
	}
	if e := s.idx.close(); e != nil && err == nil {
		err = e
	}
	s.dat = nil
	s.idx = nil
	s.st = state{}
	if err != nil {
		return newErr(CodeGeneric, err)
	}
	return nil
}
