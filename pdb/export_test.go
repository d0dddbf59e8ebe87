package pdb

// For testing

var OldOrMmcif = oldOrMmcif

const (
	OldFmt   = oldFmt
	MmcifFmt = mmcifFmt
)
