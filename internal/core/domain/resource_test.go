package domain

import "testing"

func TestNetwork_ResourceID(t *testing.T) {
	cases := []struct {
		network Network
		sat     uint64
		idx     int
		want    string
	}{
		{NetworkMainnet, 1954913028215432, 0, "did:btco:1954913028215432/0"},
		{NetworkMainnet, 1066, 2, "did:btco:1066/2"},
		{NetworkSignet, 1066, 0, "did:btco:sig:1066/0"},
		{NetworkTestnet, 1066, 1, "did:btco:test:1066/1"},
		{Network("unknown"), 7, 0, "did:btco:7/0"},
	}
	for _, tc := range cases {
		if got := tc.network.ResourceID(tc.sat, tc.idx); got != tc.want {
			t.Errorf("%s.ResourceID(%d, %d) = %q, want %q", tc.network, tc.sat, tc.idx, got, tc.want)
		}
	}
}

func TestBatchClaim_Overlaps(t *testing.T) {
	c := BatchClaim{Start: 100, End: 199}

	overlapping := [][2]int64{{100, 199}, {50, 100}, {199, 300}, {150, 160}, {0, 1000}}
	for _, r := range overlapping {
		if !c.Overlaps(r[0], r[1]) {
			t.Errorf("claim [100,199] should overlap [%d,%d]", r[0], r[1])
		}
	}

	disjoint := [][2]int64{{0, 99}, {200, 300}}
	for _, r := range disjoint {
		if c.Overlaps(r[0], r[1]) {
			t.Errorf("claim [100,199] should not overlap [%d,%d]", r[0], r[1])
		}
	}
}
