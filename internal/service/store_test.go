package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rouemaroc/spinwheel/internal/domain"
	"github.com/rouemaroc/spinwheel/internal/repository"
)

var errStoreDown = errors.New("connection refused")

// memStore keeps every table in memory behind one mutex. The compare-and-swap
// on current_winners behaves like the conditional UPDATE of the database.
type memStore struct {
	mu sync.Mutex

	gifts              map[uuid.UUID]domain.Gift
	giftOrder          []uuid.UUID
	giftCityLimits     map[[2]uuid.UUID]domain.GiftCityLimit
	venueLimits        []domain.GiftVenueLimit
	campaignCityLimits map[[2]uuid.UUID]domain.CampaignCityLimit
	campaigns          map[uuid.UUID]domain.Campaign
	cities             map[uuid.UUID]domain.City
	venues             map[uuid.UUID]domain.Venue
	participants       map[uuid.UUID]domain.Participant

	// failures injected by tests
	casErr    error
	casMisses int
	markErr   error
}

func newMemStore() *memStore {
	return &memStore{
		gifts:              map[uuid.UUID]domain.Gift{},
		giftCityLimits:     map[[2]uuid.UUID]domain.GiftCityLimit{},
		campaignCityLimits: map[[2]uuid.UUID]domain.CampaignCityLimit{},
		campaigns:          map[uuid.UUID]domain.Campaign{},
		cities:             map[uuid.UUID]domain.City{},
		venues:             map[uuid.UUID]domain.Venue{},
		participants:       map[uuid.UUID]domain.Participant{},
	}
}

func (m *memStore) giftRepo() giftStore               { return giftStore{m} }
func (m *memStore) campaignRepo() campaignStore       { return campaignStore{m} }
func (m *memStore) participantRepo() participantStore { return participantStore{m} }
func (m *memStore) cityRepo() cityStore               { return cityStore{m} }

func (m *memStore) addCampaign(active bool) domain.Campaign {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := domain.Campaign{ID: uuid.New(), Name: "Summer", Slug: "summer-" + uuid.NewString()[:6], IsActive: active}
	m.campaigns[c.ID] = c

	return c
}

func (m *memStore) addGift(campaignID *uuid.UUID, name string, ceiling domain.Ceiling) domain.Gift {
	m.mu.Lock()
	defer m.mu.Unlock()

	g := domain.Gift{ID: uuid.New(), Name: name, CampaignID: campaignID, MaxWinners: ceiling}
	m.gifts[g.ID] = g
	m.giftOrder = append(m.giftOrder, g.ID)

	return g
}

func (m *memStore) addCity(name string) domain.City {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := domain.City{ID: uuid.New(), Name: name, Username: name}
	m.cities[c.ID] = c

	return c
}

func (m *memStore) addVenue(cityID uuid.UUID, campaignID *uuid.UUID) domain.Venue {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := domain.Venue{ID: uuid.New(), Name: "Le Zinc", Type: domain.VenueBar, CityID: cityID, CampaignID: campaignID}
	m.venues[v.ID] = v

	return v
}

func (m *memStore) addVenueLimit(giftID, venueID uuid.UUID, max int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.venueLimits = append(m.venueLimits, domain.GiftVenueLimit{ID: uuid.New(), GiftID: giftID, VenueID: venueID, MaxWinners: max})
}

func (m *memStore) addGiftCityLimit(giftID, cityID uuid.UUID, max int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.giftCityLimits[[2]uuid.UUID{giftID, cityID}] = domain.GiftCityLimit{ID: uuid.New(), GiftID: giftID, CityID: cityID, MaxWinners: max}
}

func (m *memStore) addCampaignCityLimit(campaignID, cityID uuid.UUID, max int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.campaignCityLimits[[2]uuid.UUID{campaignID, cityID}] = domain.CampaignCityLimit{ID: uuid.New(), CampaignID: campaignID, CityID: cityID, MaxWinners: max}
}

func (m *memStore) addParticipant(p domain.Participant) domain.Participant {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Code == "" {
		p.Code = "T-" + p.ID.String()[:8]
	}
	m.participants[p.ID] = p

	return p
}

func (m *memStore) winners(giftID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.gifts[giftID].CurrentWinners
}

func (m *memStore) wonTickets(giftID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, p := range m.participants {
		if p.Won && p.PrizeID != nil && *p.PrizeID == giftID {
			n++
		}
	}

	return n
}

type giftStore struct{ *memStore }

func (s giftStore) Create(_ context.Context, gift domain.Gift) (domain.Gift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	gift.ID = uuid.New()
	s.gifts[gift.ID] = gift
	s.giftOrder = append(s.giftOrder, gift.ID)

	return gift, nil
}

func (s giftStore) Update(_ context.Context, gift domain.Gift) (domain.Gift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.gifts[gift.ID]
	if !ok {
		return domain.Gift{}, repository.ErrGiftNotFound
	}
	gift.CurrentWinners = current.CurrentWinners
	s.gifts[gift.ID] = gift

	return gift, nil
}

func (s giftStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.gifts[id]; !ok {
		return repository.ErrGiftNotFound
	}
	for _, p := range s.participants {
		if p.Won && p.PrizeID != nil && *p.PrizeID == id {
			return repository.ErrGiftHasWinners
		}
	}
	delete(s.gifts, id)

	return nil
}

func (s giftStore) FindByID(_ context.Context, id uuid.UUID) (domain.Gift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.gifts[id]
	if !ok {
		return domain.Gift{}, repository.ErrGiftNotFound
	}

	return g, nil
}

func (s giftStore) FindByCampaign(_ context.Context, campaignID *uuid.UUID) ([]domain.Gift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var gifts []domain.Gift
	for _, id := range s.giftOrder {
		g, ok := s.gifts[id]
		if !ok {
			continue
		}
		if (campaignID == nil && g.CampaignID == nil) ||
			(campaignID != nil && g.CampaignID != nil && *g.CampaignID == *campaignID) {
			gifts = append(gifts, g)
		}
	}

	return gifts, nil
}

func (s giftStore) List(_ context.Context) ([]domain.Gift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	gifts := make([]domain.Gift, 0, len(s.giftOrder))
	for _, id := range s.giftOrder {
		if g, ok := s.gifts[id]; ok {
			gifts = append(gifts, g)
		}
	}

	return gifts, nil
}

func (s giftStore) CompareAndSwapWinners(_ context.Context, id uuid.UUID, expected, next int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.casErr != nil {
		return false, s.casErr
	}
	if s.casMisses > 0 {
		s.casMisses--
		return false, nil
	}

	g, ok := s.gifts[id]
	if !ok || g.CurrentWinners != expected {
		return false, nil
	}
	g.CurrentWinners = next
	s.gifts[id] = g

	return true, nil
}

func (s giftStore) ListCityLimits(_ context.Context, giftID uuid.UUID) ([]domain.GiftCityLimit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var limits []domain.GiftCityLimit
	for k, l := range s.giftCityLimits {
		if k[0] == giftID {
			limits = append(limits, l)
		}
	}

	return limits, nil
}

func (s giftStore) FindCityLimit(_ context.Context, giftID, cityID uuid.UUID) (domain.GiftCityLimit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.giftCityLimits[[2]uuid.UUID{giftID, cityID}]
	if !ok {
		return domain.GiftCityLimit{}, repository.ErrLimitNotFound
	}

	return l, nil
}

func (s giftStore) UpsertCityLimit(_ context.Context, limit domain.GiftCityLimit) (domain.GiftCityLimit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit.ID = uuid.New()
	s.giftCityLimits[[2]uuid.UUID{limit.GiftID, limit.CityID}] = limit

	return limit, nil
}

func (s giftStore) DeleteCityLimit(_ context.Context, giftID, cityID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.giftCityLimits, [2]uuid.UUID{giftID, cityID})

	return nil
}

func (s giftStore) ListVenueLimits(_ context.Context, giftIDs ...uuid.UUID) ([]domain.GiftVenueLimit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := map[uuid.UUID]bool{}
	for _, id := range giftIDs {
		wanted[id] = true
	}

	var limits []domain.GiftVenueLimit
	for _, l := range s.venueLimits {
		if wanted[l.GiftID] {
			limits = append(limits, l)
		}
	}

	return limits, nil
}

func (s giftStore) FindVenueLimit(_ context.Context, giftID, venueID uuid.UUID) (domain.GiftVenueLimit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.venueLimits {
		if l.GiftID == giftID && l.VenueID == venueID {
			return l, nil
		}
	}

	return domain.GiftVenueLimit{}, repository.ErrLimitNotFound
}

func (s giftStore) UpsertVenueLimit(_ context.Context, limit domain.GiftVenueLimit) (domain.GiftVenueLimit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, l := range s.venueLimits {
		if l.GiftID == limit.GiftID && l.VenueID == limit.VenueID {
			s.venueLimits[i].MaxWinners = limit.MaxWinners
			return s.venueLimits[i], nil
		}
	}
	limit.ID = uuid.New()
	s.venueLimits = append(s.venueLimits, limit)

	return limit, nil
}

func (s giftStore) DeleteVenueLimit(_ context.Context, giftID, venueID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.venueLimits[:0]
	for _, l := range s.venueLimits {
		if l.GiftID != giftID || l.VenueID != venueID {
			kept = append(kept, l)
		}
	}
	s.venueLimits = kept

	return nil
}

func (s giftStore) ResetByID(_ context.Context, id uuid.UUID) ([]domain.Gift, error) {
	return s.reset(func(g domain.Gift) bool { return g.ID == id }), nil
}

func (s giftStore) ResetByCampaign(_ context.Context, campaignID uuid.UUID) ([]domain.Gift, error) {
	return s.reset(func(g domain.Gift) bool { return g.CampaignID != nil && *g.CampaignID == campaignID }), nil
}

func (s giftStore) ResetAll(_ context.Context) ([]domain.Gift, error) {
	return s.reset(func(domain.Gift) bool { return true }), nil
}

func (s giftStore) reset(match func(domain.Gift) bool) []domain.Gift {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reset []domain.Gift
	for _, id := range s.giftOrder {
		g, ok := s.gifts[id]
		if !ok || !match(g) {
			continue
		}
		g.CurrentWinners = 0
		s.gifts[id] = g
		reset = append(reset, g)

		for pid, p := range s.participants {
			if p.PrizeID != nil && *p.PrizeID == id {
				p.Won, p.PrizeID, p.WonAt = false, nil, nil
				s.participants[pid] = p
			}
		}
	}

	return reset
}

type campaignStore struct{ *memStore }

func (s campaignStore) Create(_ context.Context, c domain.Campaign) (domain.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.campaigns {
		if existing.Slug == c.Slug {
			return domain.Campaign{}, repository.ErrCampaignSlugExists
		}
	}
	c.ID = uuid.New()
	s.campaigns[c.ID] = c

	return c, nil
}

func (s campaignStore) Update(_ context.Context, c domain.Campaign) (domain.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.campaigns[c.ID]; !ok {
		return domain.Campaign{}, repository.ErrCampaignNotFound
	}
	s.campaigns[c.ID] = c

	return c, nil
}

func (s campaignStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.campaigns[id]; !ok {
		return repository.ErrCampaignNotFound
	}
	delete(s.campaigns, id)

	return nil
}

func (s campaignStore) FindByID(_ context.Context, id uuid.UUID) (domain.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.campaigns[id]
	if !ok {
		return domain.Campaign{}, repository.ErrCampaignNotFound
	}

	return c, nil
}

func (s campaignStore) FindBySlug(_ context.Context, slug string) (domain.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.campaigns {
		if c.Slug == slug {
			return c, nil
		}
	}

	return domain.Campaign{}, repository.ErrCampaignNotFound
}

func (s campaignStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, err := s.FindBySlug(ctx, slug)
	if errors.Is(err, repository.ErrCampaignNotFound) {
		return false, nil
	}

	return err == nil, err
}

func (s campaignStore) List(_ context.Context) ([]domain.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	campaigns := make([]domain.Campaign, 0, len(s.campaigns))
	for _, c := range s.campaigns {
		campaigns = append(campaigns, c)
	}
	sort.Slice(campaigns, func(i, j int) bool { return campaigns[i].Slug < campaigns[j].Slug })

	return campaigns, nil
}

func (s campaignStore) FindCityLimit(_ context.Context, campaignID, cityID uuid.UUID) (domain.CampaignCityLimit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.campaignCityLimits[[2]uuid.UUID{campaignID, cityID}]
	if !ok {
		return domain.CampaignCityLimit{}, repository.ErrLimitNotFound
	}

	return l, nil
}

func (s campaignStore) ListCityLimits(_ context.Context, campaignID uuid.UUID) ([]domain.CampaignCityLimit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var limits []domain.CampaignCityLimit
	for k, l := range s.campaignCityLimits {
		if k[0] == campaignID {
			limits = append(limits, l)
		}
	}

	return limits, nil
}

func (s campaignStore) UpsertCityLimit(_ context.Context, limit domain.CampaignCityLimit) (domain.CampaignCityLimit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit.ID = uuid.New()
	s.campaignCityLimits[[2]uuid.UUID{limit.CampaignID, limit.CityID}] = limit

	return limit, nil
}

func (s campaignStore) DeleteCityLimit(_ context.Context, campaignID, cityID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.campaignCityLimits, [2]uuid.UUID{campaignID, cityID})

	return nil
}

type participantStore struct{ *memStore }

func (s participantStore) Create(_ context.Context, p domain.Participant) (domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.participants {
		if existing.Code == p.Code {
			return domain.Participant{}, repository.ErrParticipantCodeExists
		}
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	s.participants[p.ID] = p

	return p, nil
}

func (s participantStore) FindByID(_ context.Context, id uuid.UUID) (domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[id]
	if !ok {
		return domain.Participant{}, repository.ErrParticipantNotFound
	}

	return p, nil
}

func (s participantStore) MarkWon(_ context.Context, id, prizeID uuid.UUID, wonAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.markErr != nil {
		return false, s.markErr
	}

	p, ok := s.participants[id]
	if !ok || p.Won {
		return false, nil
	}
	p.Won, p.PrizeID, p.WonAt = true, &prizeID, &wonAt
	s.participants[id] = p

	return true, nil
}

func (s participantStore) CountWins(_ context.Context, scope domain.WinScope) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, p := range s.participants {
		if !p.Won {
			continue
		}
		if scope.GiftID != nil && (p.PrizeID == nil || *p.PrizeID != *scope.GiftID) {
			continue
		}
		if scope.CityID != nil && (p.CityID == nil || *p.CityID != *scope.CityID) {
			continue
		}
		if scope.VenueID != nil && (p.VenueID == nil || *p.VenueID != *scope.VenueID) {
			continue
		}
		if scope.CampaignID != nil && (p.CampaignID == nil || *p.CampaignID != *scope.CampaignID) {
			continue
		}
		n++
	}

	return n, nil
}

func (s participantStore) List(_ context.Context, query domain.ParticipantQuery) ([]domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found []domain.Participant
	for _, p := range s.participants {
		if query.CampaignID != nil && (p.CampaignID == nil || *p.CampaignID != *query.CampaignID) {
			continue
		}
		if query.Won != nil && p.Won != *query.Won {
			continue
		}
		found = append(found, p)
	}

	return found, nil
}

type cityStore struct{ *memStore }

func (s cityStore) Create(_ context.Context, c domain.City) (domain.City, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.cities {
		if existing.Username == c.Username {
			return domain.City{}, repository.ErrCityUsernameExists
		}
	}
	c.ID = uuid.New()
	s.cities[c.ID] = c

	return c, nil
}

func (s cityStore) Update(_ context.Context, c domain.City) (domain.City, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cities[c.ID]; !ok {
		return domain.City{}, repository.ErrCityNotFound
	}
	s.cities[c.ID] = c

	return c, nil
}

func (s cityStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cities[id]; !ok {
		return repository.ErrCityNotFound
	}
	delete(s.cities, id)

	return nil
}

func (s cityStore) FindByID(_ context.Context, id uuid.UUID) (domain.City, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cities[id]
	if !ok {
		return domain.City{}, repository.ErrCityNotFound
	}

	return c, nil
}

func (s cityStore) FindByUsername(_ context.Context, username string) (domain.City, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.cities {
		if c.Username == username {
			return c, nil
		}
	}

	return domain.City{}, repository.ErrCityNotFound
}

func (s cityStore) List(_ context.Context) ([]domain.City, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cities := make([]domain.City, 0, len(s.cities))
	for _, c := range s.cities {
		cities = append(cities, c)
	}

	return cities, nil
}

func (s cityStore) CreateVenue(_ context.Context, v domain.Venue) (domain.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v.ID = uuid.New()
	s.venues[v.ID] = v

	return v, nil
}

func (s cityStore) UpdateVenue(_ context.Context, v domain.Venue) (domain.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.venues[v.ID]; !ok {
		return domain.Venue{}, repository.ErrVenueNotFound
	}
	s.venues[v.ID] = v

	return v, nil
}

func (s cityStore) DeleteVenue(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.venues[id]; !ok {
		return repository.ErrVenueNotFound
	}
	delete(s.venues, id)

	return nil
}

func (s cityStore) FindVenueByID(_ context.Context, id uuid.UUID) (domain.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.venues[id]
	if !ok {
		return domain.Venue{}, repository.ErrVenueNotFound
	}

	return v, nil
}

func (s cityStore) ListVenues(_ context.Context, cityID, campaignID *uuid.UUID) ([]domain.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var venues []domain.Venue
	for _, v := range s.venues {
		if cityID != nil && v.CityID != *cityID {
			continue
		}
		if campaignID != nil && v.CampaignID != nil && *v.CampaignID != *campaignID {
			continue
		}
		venues = append(venues, v)
	}

	return venues, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return nil
}

func (p *recordingPublisher) types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()

	types := make([]domain.EventType, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}

	return types
}

type failingStore struct{ giftStore }

func (failingStore) FindByCampaign(context.Context, *uuid.UUID) ([]domain.Gift, error) {
	return nil, errStoreDown
}
