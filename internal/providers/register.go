package providers

import "github.com/brensch/campcheck/internal/httpx"

// RegisterAll binds every supported campground id to its adapter. All adapters
// share the session factory so per-host rate limits apply across them.
func RegisterAll(reg *Registry, f *httpx.Factory) {
	f = factoryOrDefault(f)

	reg.Register("traverse-city-state-park", NewMiDNR(TraverseCityStatePark, f))
	reg.Register("straits-state-park", NewMiDNR(StraitsStatePark, f))

	reg.Register("traverse-city-koa", NewKOA("traverse-city", f))
	reg.Register("st-ignace-koa", NewKOA("st-ignace", f))
	reg.Register("munising-koa", NewKOA("pictured-rocks", f))

	reg.Register("indian-river", NewCampspot(IndianRiverPark, f))
	reg.Register("teepee-campground", NewCampspot(TeePeePark, f))
	reg.Register("tourist-park", NewCampspot(TouristParkPark, f))
	reg.Register("leelanau-pines", NewLeelanauPines(f))

	reg.Register("anchor-inn", NewAnchorInn(f))
	reg.Register("timber-ridge", NewTimberRidge(f))
	reg.Register("cabins-of-mackinaw", NewCabinsOfMackinaw(f))

	reg.Register("uncle-duckys-paddlers-village", NewPaddlersVillage(f))
	reg.Register("uncle-duckys-au-train", NewUncleDuckysAuTrain(f))
	reg.Register("fort-superior", NewFortSuperior(f))
	reg.Register("au-train-lake", NewAuTrainLake(f))
}

// NewDefaultRegistry is a registry with every campground registered.
func NewDefaultRegistry(f *httpx.Factory) *Registry {
	reg := NewRegistry()
	RegisterAll(reg, f)
	return reg
}
