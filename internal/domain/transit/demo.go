package transit

// DemoStops is the bundled demo stop list.
func DemoStops() []Stop {
	return []Stop{
		{ID: "S100", Name: "강남대학교 정문"},
		{ID: "S200", Name: "기흥역"},
		{ID: "S300", Name: "수지구청"},
	}
}

// DemoRoutes is the bundled demo route list.
func DemoRoutes() []Route {
	return []Route{
		{
			ID:           "R10",
			No:           "10",
			DisplayName:  "10번 (강남대 ↔ 기흥역)",
			HeadwayMin:   12,
			Daytime:      ServiceWindow{Start: Clock(6, 0, 0), End: Clock(22, 30, 0)},
			StopSequence: []string{"S200", "S100"},
		},
		{
			ID:           "R55",
			No:           "55",
			DisplayName:  "55번 (수지구청 ↔ 강남대)",
			HeadwayMin:   18,
			Daytime:      ServiceWindow{Start: Clock(6, 30, 0), End: Clock(23, 0, 0)},
			StopSequence: []string{"S300", "S100"},
		},
	}
}

// DemoSignals simulates recent sightings: R10 near 기흥역 a minute ago,
// R55 near 수지구청 six minutes ago.
func DemoSignals() []Signal {
	return []Signal{
		{RouteID: "R10", NearStopID: "S200", MinutesAgo: 1},
		{RouteID: "R55", NearStopID: "S300", MinutesAgo: 6},
	}
}

// DemoRegistry builds the bundled demo registry. The dataset is static and
// known to be valid, so a failure here is a programming error.
func DemoRegistry() *Registry {
	r, err := NewRegistry(DemoStops(), DemoRoutes(), DemoSignals())
	if err != nil {
		panic(err)
	}
	return r
}
