package geometry

// Contains reports whether p lies inside the ring or on its boundary.
//
// Points on an edge or vertex count as inside. Interior points are decided by
// even-odd ray casting toward +lon; an edge is crossed only when exactly one of
// its endpoints lies strictly above p, so a shared vertex is counted once.
func Contains(r Ring, p Coordinate) bool {
	if r.lr == nil {
		return false
	}

	b := r.lr.Bounds()
	if p.Lon < b.Min(0) || p.Lon > b.Max(0) || p.Lat < b.Min(1) || p.Lat > b.Max(1) {
		return false
	}

	flat := r.lr.FlatCoords()
	n := len(flat) / 2
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := flat[2*i], flat[2*i+1]
		xj, yj := flat[2*j], flat[2*j+1]

		if onSegment(p, xi, yi, xj, yj) {
			return true
		}

		if (yi > p.Lat) != (yj > p.Lat) {
			cross := xi + (p.Lat-yi)*(xj-xi)/(yj-yi)
			if p.Lon < cross {
				inside = !inside
			}
		}
	}
	return inside
}

// onSegment reports whether p lies exactly on the segment (xi,yi)-(xj,yj).
func onSegment(p Coordinate, xi, yi, xj, yj float64) bool {
	if (xj-xi)*(p.Lat-yi)-(yj-yi)*(p.Lon-xi) != 0 {
		return false
	}
	return p.Lon >= min(xi, xj) && p.Lon <= max(xi, xj) &&
		p.Lat >= min(yi, yj) && p.Lat <= max(yi, yj)
}
