package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"kirana/internal/api"
	"kirana/internal/dashboard"
	"kirana/internal/models"
	"kirana/internal/monitoring"
	"kirana/internal/notify"
	"kirana/internal/session"
	"kirana/internal/workbench"
)

// Styling
var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#2e7d32")).
			Padding(0, 1)

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#ff453a")).
			Padding(0, 1)

	toastStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#0a84ff")).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#30d158")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#ff453a")).
			Padding(0, 1)
)

// Model defines the application state
type Model struct {
	mainMenu    list.Model
	orderList   list.Model
	notifList   list.Model
	dashTable   table.Model
	searchInput textinput.Model
	orderDetail models.Order

	wb      *workbench.Workbench
	poller  *notify.Poller
	dash    *dashboard.Service
	filters api.Filters
	notifCh chan models.Notification

	currentView string
	searching   bool
	toast       string
	status      string
	err         string
}

// item represents a main menu entry
type item struct {
	title, desc string
}

func (i item) FilterValue() string { return i.title }
func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }

// orderItem represents an order in the list
type orderItem struct {
	order models.Order
}

func (i orderItem) Title() string {
	return fmt.Sprintf("Order %s (%s)", i.order.OrderNumber, i.order.OrderType)
}

func (i orderItem) Description() string {
	return fmt.Sprintf("%d items - %s - ₹%.2f", len(i.order.Items), i.order.Status, i.order.TotalAmt)
}

func (i orderItem) FilterValue() string { return i.order.OrderNumber }

// notifItem represents a notification in the list
type notifItem struct {
	n models.Notification
}

func (i notifItem) Title() string {
	marker := "●"
	if i.n.Read {
		marker = " "
	}
	return fmt.Sprintf("%s %s", marker, i.n.Title)
}

func (i notifItem) Description() string { return i.n.Message }
func (i notifItem) FilterValue() string { return i.n.OrderNumber }

func initialModel(wb *workbench.Workbench, poller *notify.Poller, dash *dashboard.Service) Model {
	items := []list.Item{
		item{title: "Order Workbench", desc: "Browse, filter and update orders"},
		item{title: "Notifications", desc: "New order alerts"},
		item{title: "Dashboard", desc: "Store metrics at a glance"},
		item{title: "Exit", desc: "Exit the console"},
	}

	mainMenu := list.New(items, list.NewDefaultDelegate(), 0, 0)
	mainMenu.Title = "Kirana Admin Console"

	orderList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	orderList.Title = "Orders"
	orderList.SetFilteringEnabled(false)

	notifList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	notifList.Title = "Notifications"
	notifList.SetFilteringEnabled(false)

	columns := []table.Column{
		{Title: "Metric", Width: 24},
		{Title: "Value", Width: 14},
	}
	dashTable := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	ti := textinput.New()
	ti.Placeholder = "Search orders..."
	ti.CharLimit = 64
	ti.Width = 30

	notifCh := make(chan models.Notification, 16)
	poller.Subscribe(func(n models.Notification) {
		select {
		case notifCh <- n:
		default:
		}
	})

	return Model{
		mainMenu:    mainMenu,
		orderList:   orderList,
		notifList:   notifList,
		dashTable:   dashTable,
		searchInput: ti,
		wb:          wb,
		poller:      poller,
		dash:        dash,
		filters:     api.Filters{Page: 1, Limit: workbench.DefaultPageSize},
		notifCh:     notifCh,
		currentView: "main",
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, waitForNotification(m.notifCh))
}

// Custom message types
type ordersMsg struct{ orders []models.Order }

type orderDetailMsg struct{ order models.Order }

type dashboardMsg struct{ summary dashboard.Summary }

type notificationMsg struct{ n models.Notification }

type errorMsg struct{ err string }

type confirmMsg struct{ message string }

// Update handles UI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.mainMenu.SetSize(msg.Width-h, msg.Height-v)
		m.orderList.SetSize(msg.Width-h, msg.Height-v-3)
		m.notifList.SetSize(msg.Width-h, msg.Height-v-3)
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)

	case ordersMsg:
		items := make([]list.Item, len(msg.orders))
		for i, o := range msg.orders {
			items[i] = orderItem{order: o}
		}
		m.orderList.SetItems(items)
		m.err = ""
		return m, nil

	case orderDetailMsg:
		m.orderDetail = msg.order
		m.currentView = "order_detail"
		m.err = ""
		return m, nil

	case dashboardMsg:
		m.dashTable.SetRows(summaryRows(msg.summary))
		m.err = ""
		return m, nil

	case notificationMsg:
		m.toast = msg.n.Message
		m.refreshNotifList()
		return m, waitForNotification(m.notifCh)

	case errorMsg:
		m.err = msg.err
		return m, nil

	case confirmMsg:
		m.err = ""
		m.status = msg.message
		if m.currentView == "order_detail" {
			return m, fetchOrderDetail(m.wb, m.orderDetail.OrderNumber)
		}
		return m, fetchOrders(m.wb, m.filters)
	}

	var cmd tea.Cmd
	switch m.currentView {
	case "main":
		m.mainMenu, cmd = m.mainMenu.Update(msg)
	case "orders":
		m.orderList, cmd = m.orderList.Update(msg)
	case "notifications":
		m.notifList, cmd = m.notifList.Update(msg)
	case "dashboard":
		m.dashTable, cmd = m.dashTable.Update(msg)
	}
	return m, cmd
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.searchInput.Blur()
		m.filters.Search = m.searchInput.Value()
		m.filters.Page = 1
		return m, fetchOrders(m.wb, m.filters)
	case "esc":
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "enter":
		switch m.currentView {
		case "main":
			selected, ok := m.mainMenu.SelectedItem().(item)
			if !ok {
				break
			}
			switch selected.title {
			case "Exit":
				return m, tea.Quit
			case "Order Workbench":
				m.currentView = "orders"
				return m, fetchOrders(m.wb, m.filters)
			case "Notifications":
				m.currentView = "notifications"
				m.refreshNotifList()
			case "Dashboard":
				m.currentView = "dashboard"
				return m, fetchDashboard(m.dash)
			}
		case "orders":
			if selected, ok := m.orderList.SelectedItem().(orderItem); ok {
				return m, fetchOrderDetail(m.wb, selected.order.OrderNumber)
			}
		case "order_detail":
			m.currentView = "orders"
			return m, fetchOrders(m.wb, m.filters)
		}

	case "esc":
		switch m.currentView {
		case "order_detail":
			m.currentView = "orders"
			return m, fetchOrders(m.wb, m.filters)
		case "orders", "notifications", "dashboard":
			m.currentView = "main"
			m.status = ""
		}

	case "/":
		if m.currentView == "orders" {
			m.searching = true
			m.searchInput.SetValue(m.filters.Search)
			m.searchInput.Focus()
			return m, textinput.Blink
		}

	case "f":
		if m.currentView == "orders" {
			m.filters.Status = nextStatusFilter(m.filters.Status)
			m.filters.Page = 1
			return m, fetchOrders(m.wb, m.filters)
		}

	case "t":
		if m.currentView == "orders" {
			m.filters.OrderType = nextTypeFilter(m.filters.OrderType)
			m.filters.Page = 1
			return m, fetchOrders(m.wb, m.filters)
		}

	case "right", "]":
		if m.currentView == "orders" {
			m.filters.Page++
			return m, fetchOrders(m.wb, m.filters)
		}

	case "left", "[":
		if m.currentView == "orders" && m.filters.Page > 1 {
			m.filters.Page--
			return m, fetchOrders(m.wb, m.filters)
		}

	case "1", "2":
		if m.currentView == "order_detail" {
			actions := models.NextActions(m.orderDetail.Status, m.orderDetail.OrderType)
			idx := int(msg.String()[0] - '1')
			if idx < len(actions) {
				return m, transitionOrder(m.wb, m.orderDetail, actions[idx])
			}
		}

	case "c":
		if m.currentView == "order_detail" && models.CanCancel(m.orderDetail.Status) {
			return m, cancelOrder(m.wb, m.orderDetail)
		}

	case "m":
		if m.currentView == "notifications" {
			m.poller.MarkAllRead()
			m.refreshNotifList()
		}

	case "x":
		if m.currentView == "notifications" {
			m.poller.Clear()
			m.refreshNotifList()
		}
	}

	var cmd tea.Cmd
	switch m.currentView {
	case "main":
		m.mainMenu, cmd = m.mainMenu.Update(msg)
	case "orders":
		m.orderList, cmd = m.orderList.Update(msg)
	case "notifications":
		m.notifList, cmd = m.notifList.Update(msg)
	case "dashboard":
		m.dashTable, cmd = m.dashTable.Update(msg)
	}
	return m, cmd
}

func (m *Model) refreshNotifList() {
	notifs := m.poller.Notifications()
	items := make([]list.Item, len(notifs))
	for i, n := range notifs {
		items[i] = notifItem{n: n}
	}
	m.notifList.SetItems(items)
}

// header renders the unread badge and the latest toast, shown on every
// view the way the web console's header does.
func (m Model) header() string {
	out := titleStyle.Render("Kirana")
	if unread := m.poller.UnreadCount(); unread > 0 {
		out += " " + badgeStyle.Render(fmt.Sprintf("%d unread", unread))
	}
	if m.toast != "" {
		out += " " + toastStyle.Render(m.toast)
	}
	return out
}

// View renders the UI
func (m Model) View() string {
	body := ""
	switch m.currentView {
	case "main":
		body = m.mainMenu.View()
	case "orders":
		body = m.ordersView()
	case "order_detail":
		body = orderDetailView(m.orderDetail)
	case "notifications":
		help := "\n'm' mark all read, 'x' clear, 'esc' back\n"
		body = m.notifList.View() + help
	case "dashboard":
		body = titleStyle.Render("Dashboard") + "\n\n" + m.dashTable.View() + "\n\n'esc' back"
	default:
		body = "Loading..."
	}

	footer := ""
	if m.status != "" {
		footer += "\n" + successStyle.Render(m.status)
	}
	if m.err != "" {
		footer += "\n" + errorStyle.Render(m.err)
	}
	return docStyle.Render(m.header() + "\n\n" + body + footer)
}

func (m Model) ordersView() string {
	filters := fmt.Sprintf("status: %s | type: %s | search: %s | page %d",
		orDash(string(m.filters.Status)), orDash(string(m.filters.OrderType)),
		orDash(m.filters.Search), m.filters.Page)

	view := m.orderList.View() + "\n" + filters + "\n"
	if m.searching {
		view += m.searchInput.View() + "\n"
	}
	view += "'f' status filter, 't' type filter, '/' search, '['/']' page, 'enter' detail, 'esc' back\n"
	return view
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// orderDetailView creates a detailed view of an order
func orderDetailView(order models.Order) string {
	view := titleStyle.Render(fmt.Sprintf("Order %s", order.OrderNumber)) + "\n\n"
	view += fmt.Sprintf("Type: %s\n", order.OrderType)
	view += fmt.Sprintf("Status: %s\n", order.Status)
	view += fmt.Sprintf("Placed: %s\n", order.CreatedAt.Format(time.RFC1123))
	view += fmt.Sprintf("Subtotal: ₹%.2f  Discount: ₹%.2f  Total: ₹%.2f\n", order.SubTotalAmt, order.TotalDiscount, order.TotalAmt)

	if order.DeliveryAddress != nil {
		view += fmt.Sprintf("Deliver to: %s, %s\n", order.DeliveryAddress.Line1, order.DeliveryAddress.City)
	}

	view += "\nItems:\n"
	for i, it := range order.Items {
		view += fmt.Sprintf("%d. %s (x%d) - ₹%.2f\n", i+1, it.Name, it.Quantity, it.SubTotal)
	}

	if len(order.Personnel) > 0 {
		view += "\nAssigned:\n"
		for _, p := range order.Personnel {
			view += fmt.Sprintf("- %s (%s)\n", p.Name, p.Role)
		}
	}

	if len(order.TrackingLog) > 0 {
		view += "\nTracking:\n"
		for _, t := range order.TrackingLog {
			view += fmt.Sprintf("- %s at %s", t.Status, t.Timestamp.Format("15:04 Jan 2"))
			if t.Note != "" {
				view += " (" + t.Note + ")"
			}
			view += "\n"
		}
	}

	actions := models.NextActions(order.Status, order.OrderType)
	view += "\n"
	for i, a := range actions {
		view += fmt.Sprintf("'%d' mark %s  ", i+1, a)
	}
	if models.CanCancel(order.Status) {
		view += "'c' cancel  "
	}
	if len(actions) == 0 && !models.CanCancel(order.Status) {
		view += "Order is final. "
	}
	view += "'esc' back"
	return view
}

func summaryRows(s dashboard.Summary) []table.Row {
	rows := []table.Row{
		{"Total orders", strconv.Itoa(s.TotalOrders)},
		{"Orders today", strconv.Itoa(s.OrdersToday)},
		{"Pending backlog", strconv.Itoa(s.PendingBacklog)},
		{"Revenue", fmt.Sprintf("₹%.2f", s.Revenue)},
		{"Discounts given", fmt.Sprintf("₹%.2f", s.DiscountsGiven)},
	}
	for _, st := range models.AllStatuses {
		if n := s.ByStatus[st]; n > 0 {
			rows = append(rows, table.Row{string(st), strconv.Itoa(n)})
		}
	}
	return rows
}

// Commands

func fetchOrders(wb *workbench.Workbench, f api.Filters) tea.Cmd {
	return func() tea.Msg {
		orders, err := wb.Apply(context.Background(), f)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching orders: %v", err)}
		}
		return ordersMsg{orders: orders}
	}
}

func fetchOrderDetail(wb *workbench.Workbench, number string) tea.Cmd {
	return func() tea.Msg {
		order, err := wb.Detail(context.Background(), number)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching order: %v", err)}
		}
		return orderDetailMsg{order: *order}
	}
}

func transitionOrder(wb *workbench.Workbench, o models.Order, next models.OrderStatus) tea.Cmd {
	return func() tea.Msg {
		if err := wb.Transition(context.Background(), o, next); err != nil {
			return errorMsg{err: fmt.Sprintf("Error updating order: %v", err)}
		}
		return confirmMsg{message: fmt.Sprintf("Order %s marked %s", o.OrderNumber, next)}
	}
}

func cancelOrder(wb *workbench.Workbench, o models.Order) tea.Cmd {
	return func() tea.Msg {
		if err := wb.Cancel(context.Background(), o); err != nil {
			return errorMsg{err: fmt.Sprintf("Error cancelling order: %v", err)}
		}
		return confirmMsg{message: fmt.Sprintf("Order %s cancelled", o.OrderNumber)}
	}
}

func fetchDashboard(dash *dashboard.Service) tea.Cmd {
	return func() tea.Msg {
		summary, err := dash.Summary(context.Background())
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error loading dashboard: %v", err)}
		}
		return dashboardMsg{summary: summary}
	}
}

func waitForNotification(ch chan models.Notification) tea.Cmd {
	return func() tea.Msg {
		return notificationMsg{n: <-ch}
	}
}

func main() {
	backendURL := flag.String("backend", "http://localhost:3000", "Backend base URL")
	flag.Parse()

	token := os.Getenv("KIRANA_TOKEN")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	monitor := monitoring.NewMonitor()
	client := api.NewClient(*backendURL, token)
	poller := notify.NewPoller(client, monitor)

	sess, err := session.Open(ctx, token, poller)
	if err != nil {
		fmt.Printf("Error opening session: %v\n", err)
		os.Exit(1)
	}
	defer sess.Close()

	wb := workbench.New(client, monitor)
	dash := dashboard.NewService(client, 100)

	p := tea.NewProgram(initialModel(wb, poller, dash))
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v", err)
		os.Exit(1)
	}
}

// nextStatusFilter cycles the status quick filter through the
// lifecycle, ending back at "all".
func nextStatusFilter(cur models.OrderStatus) models.OrderStatus {
	if cur == "" {
		return models.AllStatuses[0]
	}
	for i, s := range models.AllStatuses {
		if s == cur {
			if i == len(models.AllStatuses)-1 {
				return ""
			}
			return models.AllStatuses[i+1]
		}
	}
	return ""
}

func nextTypeFilter(cur models.OrderType) models.OrderType {
	switch cur {
	case "":
		return models.TypeDelivery
	case models.TypeDelivery:
		return models.TypeTakeout
	}
	return ""
}
