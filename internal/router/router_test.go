package router

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accounthandler "github.com/jwalitptl/clinic-booking/internal/handler/account"
	adminhandler "github.com/jwalitptl/clinic-booking/internal/handler/admin"
	appointmenthandler "github.com/jwalitptl/clinic-booking/internal/handler/appointment"
	authhandler "github.com/jwalitptl/clinic-booking/internal/handler/auth"
	doctorhandler "github.com/jwalitptl/clinic-booking/internal/handler/doctor"
	"github.com/jwalitptl/clinic-booking/internal/handler/health"
	"github.com/jwalitptl/clinic-booking/internal/handler/home"
	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository/repotest"
	"github.com/jwalitptl/clinic-booking/internal/service/appointment"
	"github.com/jwalitptl/clinic-booking/internal/service/auth"
	"github.com/jwalitptl/clinic-booking/internal/service/doctor"
	"github.com/jwalitptl/clinic-booking/internal/service/user"
	"github.com/jwalitptl/clinic-booking/internal/session"
	"github.com/jwalitptl/clinic-booking/internal/templates"
	"github.com/jwalitptl/clinic-booking/pkg/metrics"
	"github.com/jwalitptl/clinic-booking/pkg/security"
	"github.com/jwalitptl/clinic-booking/pkg/validator"
)

type app struct {
	store  *repotest.Store
	server *httptest.Server
}

func newApp(t *testing.T) *app {
	t.Helper()
	require.NoError(t, validator.Register())

	store := repotest.NewStore()
	m := metrics.New("clinic_test")
	hasher := security.NewBcryptHasher(4)

	authSvc := auth.NewService(store.Users(), hasher, "admin123", m)
	userSvc := user.NewService(store.Users(), hasher)
	doctorSvc := doctor.NewService(store.Doctors(), store.Users(), store.Feedback())
	apptSvc := appointment.NewService(store.Appointments(), store.Doctors(), store.Users(), nil, m)

	views, err := templates.Load()
	require.NoError(t, err)

	sessions := session.NewManager(session.NewMemoryStore(time.Minute), session.NewCodec("test-secret"), session.Options{CookieName: "sid"})
	ops := health.NewHandler(health.PingFunc(func(context.Context) error { return nil }), nil, m.Handler())

	r := NewRouter(
		RouterConfig{Mode: gin.TestMode, CSRFEnabled: true},
		views, sessions, store.Users(), m, ops,
		home.NewHandler(),
		doctorhandler.NewHandler(doctorSvc),
		authhandler.NewHandler(authSvc, nil),
		accounthandler.NewHandler(userSvc),
		appointmenthandler.NewHandler(apptSvc),
		adminhandler.NewHandler(doctorSvc, userSvc, apptSvc, adminhandler.Contact{Email: "admin@example.com"}),
	)
	r.Setup()

	srv := httptest.NewServer(r.Engine())
	t.Cleanup(srv.Close)
	return &app{store: store, server: srv}
}

type browser struct {
	t      *testing.T
	app    *app
	client *http.Client
}

func (a *app) browser(t *testing.T) *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{
		t:   t,
		app: a,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

type page struct {
	status   int
	body     string
	location string
}

func (b *browser) do(req *http.Request) page {
	b.t.Helper()
	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return page{status: resp.StatusCode, body: string(body), location: resp.Header.Get("Location")}
}

func (b *browser) get(path string) page {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.app.server.URL+path, nil)
	require.NoError(b.t, err)
	return b.do(req)
}

var csrfPattern = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

// submit loads formPath for a CSRF token and posts values to postPath.
func (b *browser) submit(formPath, postPath string, values url.Values) page {
	b.t.Helper()
	form := b.get(formPath)
	m := csrfPattern.FindStringSubmatch(form.body)
	require.Len(b.t, m, 2, "no csrf token on %s", formPath)
	values.Set("csrf_token", m[1])
	return b.post(postPath, values)
}

func (b *browser) post(path string, values url.Values) page {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodPost, b.app.server.URL+path, strings.NewReader(values.Encode()))
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) register(username, role string) {
	b.t.Helper()
	p := b.submit("/register", "/register", url.Values{
		"username":         {username},
		"email":            {username + "@example.com"},
		"contact":          {"9876543210"},
		"role":             {role},
		"password":         {"secret123"},
		"confirm_password": {"secret123"},
	})
	require.Equal(b.t, http.StatusFound, p.status, p.body)
	require.Equal(b.t, "/login", p.location)
}

func (b *browser) login(username string) {
	b.t.Helper()
	p := b.submit("/login", "/login", url.Values{"username": {username}, "password": {"secret123"}})
	require.Equal(b.t, http.StatusFound, p.status, p.body)
}

func (a *app) userID(t *testing.T, username string) int64 {
	u, err := a.store.Users().GetByUsername(context.Background(), username)
	require.NoError(t, err)
	return u.ID
}

func TestBookingLifecycle(t *testing.T) {
	a := newApp(t)

	// doctor signs up and waits for approval
	doc := a.browser(t)
	p := doc.submit("/doctor_register", "/doctor_register", url.Values{
		"username":         {"drsmith"},
		"email":            {"drsmith@example.com"},
		"contact":          {"9876543210"},
		"password":         {"secret123"},
		"confirm_password": {"secret123"},
		"name":             {"Dr. Smith"},
		"degree":           {"MBBS"},
		"specialization":   {"Cardiology"},
		"bio":              {"Heart specialist"},
		"fees":             {"1500"},
		"location":         {"Mumbai"},
		"visit_types":      {"both"},
	})
	require.Equal(t, http.StatusFound, p.status, p.body)
	profile, err := a.store.Doctors().GetByUserID(context.Background(), a.userID(t, "drsmith"))
	require.NoError(t, err)
	assert.False(t, profile.Verified)
	doctorPath := fmt.Sprintf("/book/%d", profile.ID)

	alice := a.browser(t)
	alice.register("alice", "patient")
	alice.login("alice")

	p = alice.get(doctorPath)
	assert.Equal(t, http.StatusFound, p.status)
	assert.Equal(t, "/", p.location)
	assert.Contains(t, alice.get("/").body, "This doctor is not yet verified.")

	admin := a.browser(t)
	admin.register("admin123", "patient")
	admin.login("admin123")
	p = admin.submit("/admin", fmt.Sprintf("/admin/approve_doctor/%d", a.userID(t, "drsmith")), url.Values{})
	assert.Equal(t, http.StatusFound, p.status)
	assert.Contains(t, admin.get("/admin").body, "Doctor Dr. Smith approved.")

	slot := url.Values{"date": {"2024-01-01"}, "time": {"10:00"}, "visit_type": {"clinic"}}
	p = alice.submit(doctorPath, doctorPath, slot)
	require.Equal(t, http.StatusFound, p.status, p.body)
	assert.Equal(t, "/my_appointments", p.location)
	booked, err := a.store.Appointments().ListByPatient(context.Background(), a.userID(t, "alice"))
	require.NoError(t, err)
	require.Len(t, booked, 1)
	id := booked[0].ID
	apptPath := func(prefix string) string { return fmt.Sprintf("/%s/%d", prefix, id) }
	appt, ok := a.store.Appointment(id)
	require.True(t, ok)
	assert.Equal(t, model.AppointmentStatusPending, appt.Status)
	assert.Equal(t, 0, appt.RescheduleCount)

	bob := a.browser(t)
	bob.register("bob", "patient")
	bob.login("bob")
	p = bob.submit(doctorPath, doctorPath, slot)
	assert.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "This slot is already taken. Choose another time.")
	others, err := a.store.Appointments().ListByPatient(context.Background(), a.userID(t, "bob"))
	require.NoError(t, err)
	assert.Empty(t, others)

	// only the owner may cancel
	p = bob.get(apptPath("cancel"))
	assert.Equal(t, http.StatusForbidden, p.status)
	assert.Contains(t, p.body, "Forbidden (403)")

	doc.login("drsmith")
	p = doc.submit("/doctor_dashboard", apptPath("accept_appointment"), url.Values{})
	assert.Equal(t, http.StatusFound, p.status)
	assert.Equal(t, "/doctor_dashboard", p.location)
	appt, _ = a.store.Appointment(id)
	assert.Equal(t, model.AppointmentStatusConfirmed, appt.Status)
	assert.Equal(t, model.ResponseAccept, appt.Response())

	p = alice.submit(apptPath("reschedule"), apptPath("reschedule"), url.Values{"date": {"2024-01-02"}, "time": {"11:00"}})
	assert.Equal(t, http.StatusFound, p.status, p.body)
	appt, _ = a.store.Appointment(id)
	assert.Equal(t, model.AppointmentStatusPending, appt.Status)
	assert.Equal(t, 1, appt.RescheduleCount)
	assert.Equal(t, "2024-01-02", appt.Date)
	assert.Equal(t, "11:00", appt.Time)

	p = alice.get("/my_appointments")
	assert.Contains(t, p.body, "Appointment rescheduled.")
	assert.Contains(t, p.body, "Dr. Smith")

	// cancelling needs the form token
	p = alice.post(apptPath("cancel"), url.Values{})
	assert.Equal(t, http.StatusBadRequest, p.status)
	appt, _ = a.store.Appointment(id)
	assert.Equal(t, model.AppointmentStatusPending, appt.Status)

	p = alice.submit("/my_appointments", apptPath("cancel"), url.Values{})
	assert.Equal(t, http.StatusFound, p.status)
	assert.Equal(t, "/my_appointments", p.location)
	appt, _ = a.store.Appointment(id)
	assert.Equal(t, model.AppointmentStatusCancelled, appt.Status)

	// cancelled is terminal; the dashboard shows no forms for it any more
	p = doc.submit("/profile", apptPath("accept_appointment"), url.Values{})
	assert.Equal(t, http.StatusFound, p.status)
	assert.Equal(t, "/doctor_dashboard", p.location)
	assert.Contains(t, doc.get("/doctor_dashboard").body, "This appointment has been cancelled.")
	appt, _ = a.store.Appointment(id)
	assert.Equal(t, model.AppointmentStatusCancelled, appt.Status)
	assert.Equal(t, model.ResponseAccept, appt.Response())

	p = alice.submit("/profile", apptPath("reschedule"), url.Values{"date": {"2024-01-03"}, "time": {"09:00"}})
	assert.Equal(t, http.StatusFound, p.status)
	assert.Equal(t, "/my_appointments", p.location)
	assert.Contains(t, alice.get("/my_appointments").body, "Cannot reschedule this appointment.")
	appt, _ = a.store.Appointment(id)
	assert.Equal(t, model.AppointmentStatusCancelled, appt.Status)
	assert.Equal(t, 1, appt.RescheduleCount)
}

func TestLoginRequiredRedirectsWithNext(t *testing.T) {
	a := newApp(t)
	b := a.browser(t)

	p := b.get("/my_appointments")
	assert.Equal(t, http.StatusFound, p.status)
	assert.Equal(t, "/login?next=%2Fmy_appointments", p.location)

	b.register("carol", "patient")
	p = b.submit("/login?next=%2Fmy_appointments", "/login?next=%2Fmy_appointments", url.Values{"username": {"carol"}, "password": {"secret123"}})
	assert.Equal(t, http.StatusFound, p.status)
	assert.Equal(t, "/my_appointments", p.location)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	a := newApp(t)
	b := a.browser(t)
	b.register("dave", "patient")

	p := b.submit("/login", "/login", url.Values{"username": {"dave"}, "password": {"wrong-password"}})
	assert.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "Invalid credentials")
}

func TestRegisterValidationAndDuplicates(t *testing.T) {
	a := newApp(t)
	b := a.browser(t)

	p := b.submit("/register", "/register", url.Values{
		"username":         {"ab"},
		"email":            {"not-an-email"},
		"contact":          {"123"},
		"password":         {"secret123"},
		"confirm_password": {"different"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, p.status)
	assert.Contains(t, p.body, "Field must be at least 3 characters long.")
	assert.Contains(t, p.body, "Invalid email address.")
	assert.Contains(t, p.body, "Field must be equal to password.")

	b.register("erin", "patient")
	p = b.submit("/register", "/register", url.Values{
		"username":         {"erin"},
		"email":            {"other@example.com"},
		"contact":          {"9876543210"},
		"password":         {"secret123"},
		"confirm_password": {"secret123"},
	})
	assert.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "Username already taken")
}

func TestCSRFRequiredOnPost(t *testing.T) {
	a := newApp(t)
	b := a.browser(t)
	b.get("/login")

	p := b.post("/login", url.Values{"username": {"x"}, "password": {"y"}})
	assert.Equal(t, http.StatusBadRequest, p.status)
	assert.Contains(t, p.body, "Bad request (400)")
}

func TestAdminGuardAndUnknownRoute(t *testing.T) {
	a := newApp(t)
	b := a.browser(t)
	b.register("frank", "patient")
	b.login("frank")

	p := b.get("/admin")
	assert.Equal(t, http.StatusForbidden, p.status)
	assert.Contains(t, p.body, "Forbidden (403)")

	p = b.get("/no/such/page")
	assert.Equal(t, http.StatusNotFound, p.status)
	assert.Contains(t, p.body, "Not found (404)")

	p = b.get("/doctor/999")
	assert.Equal(t, http.StatusNotFound, p.status)
}

func TestAdminManagesDoctorsAndUsers(t *testing.T) {
	a := newApp(t)
	admin := a.browser(t)
	admin.register("admin123", "patient")
	admin.login("admin123")

	p := admin.submit("/admin/add_doctor", "/admin/add_doctor", url.Values{
		"name":           {"Dr. Walk-in"},
		"degree":         {"MBBS"},
		"specialization": {"General"},
		"bio":            {"Clinic physician"},
		"fees":           {"300"},
		"visit_types":    {"clinic"},
	})
	require.Equal(t, http.StatusFound, p.status, p.body)
	assert.Equal(t, "/admin", p.location)

	doctors, err := a.store.Doctors().List(context.Background())
	require.NoError(t, err)
	require.Len(t, doctors, 1)
	added := doctors[0]
	assert.True(t, added.Verified)
	assert.Nil(t, added.UserID)

	p = admin.get("/admin")
	assert.Contains(t, p.body, "Doctor added")
	assert.Contains(t, p.body, "admin@example.com")

	p = admin.get(fmt.Sprintf("/admin/schedule/%d?date=2024-01-01", added.ID))
	assert.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "Schedule for Dr. Walk-in on 2024-01-01")
	assert.Contains(t, p.body, "No appointments on this day.")

	assert.Equal(t, http.StatusNotFound, admin.get("/admin/schedule/999").status)

	p = admin.submit("/admin", fmt.Sprintf("/admin/delete_doctor/%d", added.ID), url.Values{})
	assert.Equal(t, http.StatusFound, p.status)
	_, err = a.store.Doctors().Get(context.Background(), added.ID)
	assert.Error(t, err)

	carol := a.browser(t)
	carol.register("carol", "patient")
	carolID := a.userID(t, "carol")

	editPath := fmt.Sprintf("/admin_edit_user/%d", carolID)
	p = admin.submit(editPath, editPath, url.Values{"city": {"Pune"}, "dob": {"1990-05-01"}})
	assert.Equal(t, http.StatusFound, p.status, p.body)
	u, err := a.store.Users().Get(context.Background(), carolID)
	require.NoError(t, err)
	assert.Equal(t, "Pune", u.City)

	p = admin.submit(editPath, editPath, url.Values{"dob": {"not-a-date"}})
	assert.Equal(t, http.StatusUnprocessableEntity, p.status)

	p = admin.submit("/admin_users", fmt.Sprintf("/admin_delete_user/%d", carolID), url.Values{})
	assert.Equal(t, http.StatusFound, p.status)
	assert.Equal(t, "/admin_users", p.location)
	_, err = a.store.Users().Get(context.Background(), carolID)
	assert.Error(t, err)
}

func TestSearchHidesUnverifiedDoctors(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()
	require.NoError(t, a.store.Doctors().Create(ctx, &model.Doctor{Name: "Dr. Verified", Specialization: "Cardiology", Location: "Pune", Fees: 500, Verified: true}))
	require.NoError(t, a.store.Doctors().Create(ctx, &model.Doctor{Name: "Dr. Hidden", Specialization: "Cardiology", Location: "Pune", Fees: 500}))

	b := a.browser(t)
	p := b.get("/search?specialization=cardio")
	assert.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "Dr. Verified")
	assert.NotContains(t, p.body, "Dr. Hidden")

	p = b.submit("/search", "/search", url.Values{"city": {"pune"}, "min_fees": {"100"}})
	assert.Contains(t, p.body, "No doctors match your search.")

	// the index lists every doctor
	p = b.get("/")
	assert.Contains(t, p.body, "Dr. Hidden")
}

func TestOpsRoutes(t *testing.T) {
	a := newApp(t)
	b := a.browser(t)

	p := b.get("/welcome")
	assert.JSONEq(t, `{"message":"Welcome to the Clinic Management System!"}`, p.body)

	p = b.get("/health/ready")
	assert.Equal(t, http.StatusOK, p.status)

	p = b.get("/metrics")
	assert.Contains(t, p.body, "clinic_test_requests_total")
}
